package services

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/umar-io/lease-agreement-generator/internal/common"
	"github.com/umar-io/lease-agreement-generator/internal/models"
	"go.uber.org/zap"
)

var testPDF = []byte("%PDF-1.3 lease body")

type DeliveryServiceTestSuite struct {
	suite.Suite
	server      *httptest.Server
	storedHits  atomic.Int32
	signedHits  atomic.Int32
	storedCode  int
	signedCode  int
	bodySize    int
	store       *MockArtifactStore
	sender      *MockEmailSender
	leases      *MockLeaseRepository
	service     DeliveryService
	ctx         context.Context
	leaseID     uuid.UUID
	storedURL   string
	signedURL   string
	sentMessage EmailMessage
}

func (suite *DeliveryServiceTestSuite) SetupTest() {
	suite.storedHits.Store(0)
	suite.signedHits.Store(0)
	suite.storedCode = http.StatusOK
	suite.signedCode = http.StatusOK
	suite.bodySize = 0
	suite.sentMessage = EmailMessage{}

	suite.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := suite.storedCode
		if r.URL.Path == "/signed" {
			suite.signedHits.Add(1)
			code = suite.signedCode
		} else {
			suite.storedHits.Add(1)
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.WriteHeader(code)
		if suite.bodySize > 0 {
			_, _ = w.Write([]byte(strings.Repeat("x", suite.bodySize)))
			return
		}
		_, _ = w.Write(testPDF)
	}))
	suite.storedURL = suite.server.URL + "/leases/lease-agreements/lease_1.pdf"
	suite.signedURL = suite.server.URL + "/signed?sig=abc"

	suite.store = &MockArtifactStore{}
	suite.sender = &MockEmailSender{}
	suite.leases = &MockLeaseRepository{}
	suite.service = NewDeliveryService(suite.sender, suite.store, suite.leases, DeliveryConfig{
		MaxPDFBytes: 1024,
	}, zap.NewNop())
	suite.ctx = context.Background()
	suite.leaseID = uuid.New()
}

func (suite *DeliveryServiceTestSuite) TearDownTest() {
	suite.service.Wait()
	suite.server.Close()
	suite.store.AssertExpectations(suite.T())
	suite.sender.AssertExpectations(suite.T())
	suite.leases.AssertExpectations(suite.T())
}

func TestDeliveryServiceTestSuite(t *testing.T) {
	suite.Run(t, new(DeliveryServiceTestSuite))
}

func (suite *DeliveryServiceTestSuite) request(ref string) DeliveryRequest {
	return DeliveryRequest{
		TenantEmail:  "jane@example.com",
		TenantName:   "Jane Doe",
		LandlordName: "John Doe",
		PDFRef:       ref,
		LeaseID:      uuid.NullUUID{UUID: suite.leaseID, Valid: true},
	}
}

func (suite *DeliveryServiceTestSuite) expectSend(id string, err error) {
	suite.sender.On("Send", mock.Anything, mock.AnythingOfType("services.EmailMessage")).
		Run(func(args mock.Arguments) {
			suite.sentMessage = args.Get(1).(EmailMessage)
		}).
		Return(id, err).Once()
}

func (suite *DeliveryServiceTestSuite) TestSend_PublicURL() {
	ref := suite.server.URL + "/public/lease.pdf"
	suite.store.On("IsStoreURL", ref).Return(false)
	suite.expectSend("msg_1", nil)
	suite.leases.On("UpdateStatus", mock.Anything, suite.leaseID, models.LeaseStatusSent).Return(nil).Once()

	id, err := suite.service.Send(suite.ctx, suite.request(ref))
	suite.Require().NoError(err)
	suite.service.Wait()

	suite.Equal("msg_1", id)
	suite.Equal(DefaultEmailFrom, suite.sentMessage.From)
	suite.Equal([]string{"jane@example.com"}, suite.sentMessage.To)
	suite.Equal("Lease Agreement - John Doe", suite.sentMessage.Subject)
	suite.Require().Len(suite.sentMessage.Attachments, 1)
	suite.Equal("Lease_Agreement_Jane_Doe.pdf", suite.sentMessage.Attachments[0].Filename)
	suite.Equal(testPDF, suite.sentMessage.Attachments[0].Content)
	suite.Contains(suite.sentMessage.HTML, "Download Lease Agreement")
	suite.Contains(suite.sentMessage.HTML, `href="`+ref+`"`)
}

func (suite *DeliveryServiceTestSuite) TestSend_StoreURLRetriesOnceWithSignedURL() {
	suite.storedCode = http.StatusForbidden
	suite.store.On("IsStoreURL", suite.storedURL).Return(true)
	suite.store.On("SignedURL", mock.Anything, suite.storedURL).Return(suite.signedURL, true)
	suite.expectSend("msg_2", nil)
	suite.leases.On("UpdateStatus", mock.Anything, suite.leaseID, models.LeaseStatusSent).Return(nil).Once()

	id, err := suite.service.Send(suite.ctx, suite.request(suite.storedURL))
	suite.Require().NoError(err)

	suite.Equal("msg_2", id)
	suite.Equal(int32(1), suite.storedHits.Load())
	suite.Equal(int32(1), suite.signedHits.Load())
	suite.Equal(testPDF, suite.sentMessage.Attachments[0].Content)
	suite.Contains(suite.sentMessage.HTML, "/signed?sig=abc")
}

func (suite *DeliveryServiceTestSuite) TestSend_SignedRetryFailureIsPdfUnavailable() {
	suite.storedCode = http.StatusForbidden
	suite.signedCode = http.StatusForbidden
	suite.store.On("IsStoreURL", suite.storedURL).Return(true)
	suite.store.On("SignedURL", mock.Anything, suite.storedURL).Return(suite.signedURL, true).Once()

	_, err := suite.service.Send(suite.ctx, suite.request(suite.storedURL))
	suite.ErrorIs(err, common.ErrPdfUnavailable)
	suite.Equal(int32(1), suite.storedHits.Load())
	suite.Equal(int32(1), suite.signedHits.Load())
}

func (suite *DeliveryServiceTestSuite) TestSend_UnsignableStoreURL() {
	suite.storedCode = http.StatusNotFound
	suite.store.On("IsStoreURL", suite.storedURL).Return(true)
	suite.store.On("SignedURL", mock.Anything, suite.storedURL).Return("", false).Once()

	_, err := suite.service.Send(suite.ctx, suite.request(suite.storedURL))
	suite.ErrorIs(err, common.ErrPdfUnavailable)
	suite.Equal(int32(0), suite.signedHits.Load())
}

func (suite *DeliveryServiceTestSuite) TestSend_ForeignURLIsNotRetried() {
	ref := suite.server.URL + "/elsewhere.pdf"
	suite.storedCode = http.StatusInternalServerError
	suite.store.On("IsStoreURL", ref).Return(false)

	_, err := suite.service.Send(suite.ctx, suite.request(ref))
	suite.ErrorIs(err, common.ErrPdfUnavailable)
	suite.Equal(int32(1), suite.storedHits.Load())
	suite.Equal(int32(0), suite.signedHits.Load())
}

func (suite *DeliveryServiceTestSuite) TestSend_SizeLimit() {
	suite.bodySize = 4096

	_, err := suite.service.Send(suite.ctx, suite.request(suite.storedURL))
	suite.ErrorIs(err, common.ErrSizeLimitExceeded)
	suite.Equal(int32(0), suite.signedHits.Load())
}

func (suite *DeliveryServiceTestSuite) TestSend_DataURL() {
	ref := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(testPDF)
	suite.expectSend("msg_3", nil)

	req := suite.request(ref)
	req.LeaseID = uuid.NullUUID{}
	id, err := suite.service.Send(suite.ctx, req)
	suite.Require().NoError(err)

	suite.Equal("msg_3", id)
	suite.Equal(testPDF, suite.sentMessage.Attachments[0].Content)
	suite.NotContains(suite.sentMessage.HTML, "Download Lease Agreement")
	suite.Equal(int32(0), suite.storedHits.Load())
}

func (suite *DeliveryServiceTestSuite) TestSend_MalformedDataURL() {
	_, err := suite.service.Send(suite.ctx, suite.request("data:application/pdf,not-base64"))
	suite.ErrorIs(err, common.ErrPdfUnavailable)

	_, err = suite.service.Send(suite.ctx, suite.request("data:application/pdf;base64,%%%"))
	suite.ErrorIs(err, common.ErrPdfUnavailable)
}

func (suite *DeliveryServiceTestSuite) TestSend_OversizedDataURL() {
	ref := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(make([]byte, 4096))
	_, err := suite.service.Send(suite.ctx, suite.request(ref))
	suite.ErrorIs(err, common.ErrSizeLimitExceeded)
}

func (suite *DeliveryServiceTestSuite) TestSend_TransportRejected() {
	ref := suite.server.URL + "/public/lease.pdf"
	suite.store.On("IsStoreURL", ref).Return(false)
	suite.expectSend("", errors.Join(common.ErrTransportRejected, errors.New("domain not verified")))

	_, err := suite.service.Send(suite.ctx, suite.request(ref))
	suite.ErrorIs(err, common.ErrTransportRejected)
}

func (suite *DeliveryServiceTestSuite) TestSend_StatusUpdateFailureIsSwallowed() {
	ref := suite.server.URL + "/public/lease.pdf"
	suite.store.On("IsStoreURL", ref).Return(false)
	suite.expectSend("msg_4", nil)
	suite.leases.On("UpdateStatus", mock.Anything, suite.leaseID, models.LeaseStatusSent).
		Return(common.ErrPersistence).Once()

	id, err := suite.service.Send(suite.ctx, suite.request(ref))
	suite.NoError(err)
	suite.Equal("msg_4", id)
}

func (suite *DeliveryServiceTestSuite) TestSend_ValidatesRequest() {
	_, err := suite.service.Send(suite.ctx, DeliveryRequest{TenantEmail: "nope", PDFRef: "ftp://x"})

	var verr *common.ValidationError
	suite.Require().ErrorAs(err, &verr)
	details := verr.Details()
	suite.Equal("must be a valid email address", details["tenant_email"])
	suite.Equal("is required", details["tenant_name"])
	suite.Equal("is required", details["landlord_name"])
	suite.Equal("must be an http(s) or data URL", details["pdf_url"])
}

func TestSanitizeAttachmentFilename(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Jane Doe", "Lease_Agreement_Jane_Doe.pdf"},
		{"  José \t O'Brien ", "Lease_Agreement_Jos_OBrien.pdf"},
		{"Mary-Kate  Smith", "Lease_Agreement_Mary-Kate_Smith.pdf"},
		{"", "Lease_Agreement_Tenant.pdf"},
		{"!!!", "Lease_Agreement_Tenant.pdf"},
		{strings.Repeat("a", 100), "Lease_Agreement_" + strings.Repeat("a", 60) + ".pdf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeAttachmentFilename(tt.name), tt.name)
	}
}

func TestRenderDeliveryEmailEscapesNames(t *testing.T) {
	html, err := RenderDeliveryEmail(DeliveryEmail{
		TenantName:   "<script>alert(1)</script>",
		LandlordName: "John & Sons",
	})
	assert.NoError(t, err)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, "John &amp; Sons")
	assert.NotContains(t, html, "Download Lease Agreement")
}
