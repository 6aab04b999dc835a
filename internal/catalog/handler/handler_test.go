package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"abcretail/internal/catalog/handler/mocks"
	"abcretail/internal/catalog/service"
	"abcretail/internal/domain"
	dErrors "abcretail/pkg/domain-errors"
	"abcretail/pkg/testutil"
)

type CatalogHandlerSuite struct {
	suite.Suite
	svc    *mocks.MockService
	router chi.Router
}

func TestCatalogHandlerSuite(t *testing.T) {
	suite.Run(t, new(CatalogHandlerSuite))
}

func (s *CatalogHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.svc = mocks.NewMockService(ctrl)
	s.router = chi.NewRouter()
	New(s.svc, slog.New(slog.NewTextHandler(io.Discard, nil)), nil).Register(s.router)
}

func (s *CatalogHandlerSuite) TestCreateCustomer() {
	in := service.CustomerInput{CustomerName: "Ada", CustomerEmail: "ada@example.com"}
	s.svc.EXPECT().CreateCustomer(gomock.Any(), in).Return(&domain.Customer{
		Entity:        domain.Entity{PartitionKey: domain.PartitionCustomer, RowKey: "c1", ETag: "v1"},
		CustomerName:  in.CustomerName,
		CustomerEmail: in.CustomerEmail,
	}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/customers", in))

	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	s.Equal(`"v1"`, rr.Header().Get("ETag"))
	testutil.AssertJSONContains(s.T(), rr, "rowKey", "c1")
}

func (s *CatalogHandlerSuite) TestCustomerRequiresJSON() {
	req := httptest.NewRequest(http.MethodPost, "/customers", bytes.NewBufferString("name=ada"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
}

func (s *CatalogHandlerSuite) TestUpdateCustomerPassesIfMatch() {
	in := service.CustomerInput{CustomerName: "Ada", CustomerEmail: "ada@example.com"}
	s.svc.EXPECT().UpdateCustomer(gomock.Any(), "c1", in, `"v1"`).
		Return(nil, dErrors.New(dErrors.CodePreconditionFailed, "customer version does not match"))

	req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/customers/c1", in)
	req.Header.Set("If-Match", `"v1"`)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusAndError(s.T(), rr, http.StatusPreconditionFailed, string(dErrors.CodePreconditionFailed))
}

func (s *CatalogHandlerSuite) TestDeleteCustomer() {
	s.svc.EXPECT().DeleteCustomer(gomock.Any(), "c1").Return(nil)
	s.svc.EXPECT().DeleteCustomer(gomock.Any(), "c2").Return(dErrors.New(dErrors.CodeNotFound, "customer not found"))

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodDelete, "/customers/c1"))
	testutil.AssertStatus(s.T(), rr, http.StatusNoContent)

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodDelete, "/customers/c2"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
}

func (s *CatalogHandlerSuite) TestCreateProductMultipart() {
	s.svc.EXPECT().CreateProduct(gomock.Any(), service.ProductInput{ProductName: "Lamp", ProductPrice: 19.5}, gomock.Not(gomock.Nil())).
		DoAndReturn(func(_ context.Context, in service.ProductInput, img *service.Image) (*domain.Product, error) {
			s.Equal("lamp.png", img.Filename)
			data, err := io.ReadAll(img.Body)
			s.Require().NoError(err)
			s.Equal("png-bytes", string(data))
			return &domain.Product{
				Entity:               domain.Entity{RowKey: "p1", ETag: "v1"},
				ProductName:          in.ProductName,
				ProductPrice:         in.ProductPrice,
				ProductImageBlobName: "product-photos/p1-abc.png",
				ProductImageURL:      "memory://blob/product-photos/p1-abc.png",
			}, nil
		})

	req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/products",
		[]testutil.Field{{Name: "ProductName", Value: "Lamp"}, {Name: "productPrice", Value: "19.5"}},
		testutil.FormFile{Field: "imageFile", Filename: "lamp.png", Content: []byte("png-bytes")},
	)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	testutil.AssertJSONContains(s.T(), rr, "productImageUrl", "memory://blob/product-photos/p1-abc.png")
}

func (s *CatalogHandlerSuite) TestCreateProductJSONHasNoImage() {
	in := service.ProductInput{ProductName: "Desk", ProductPrice: 120}
	s.svc.EXPECT().CreateProduct(gomock.Any(), in, gomock.Nil()).
		Return(&domain.Product{Entity: domain.Entity{RowKey: "p2"}, ProductName: "Desk", ProductPrice: 120}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/products", in))

	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
}

func (s *CatalogHandlerSuite) TestBadMultipartPrice() {
	req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/products",
		[]testutil.Field{{Name: "productName", Value: "Lamp"}, {Name: "productPrice", Value: "cheap"}},
	)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
}

func (s *CatalogHandlerSuite) TestListProducts() {
	s.svc.EXPECT().ListProducts(gomock.Any()).Return([]*domain.Product{{ProductName: "A"}}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/products"))

	testutil.AssertStatusOK(s.T(), rr)
	got := testutil.UnmarshalResponse[[]domain.Product](s.T(), rr)
	s.Require().Len(*got, 1)
	s.Equal("A", (*got)[0].ProductName)
}
