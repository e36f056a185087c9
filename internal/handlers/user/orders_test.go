package user

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ghee_back_end/internal/apperr"
)

func init() { gin.SetMode(gin.TestMode) }

func contextFor(req *http.Request) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req
	return c
}

func TestDecodePlaceOrderJSON(t *testing.T) {
	body := `{"items":[{"product":"64b7f0c2a1b2c3d4e5f60718","size":"1kg","quantity":2}],
		"shippingAddress":{"name":"Meera","city":"Pune"},"paymentMethod":"cod"}`
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	in, closer, err := decodePlaceOrder(contextFor(req))
	require.NoError(t, err)
	defer closer.Close()

	require.Len(t, in.Items, 1)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", in.Items[0].ProductID)
	assert.Equal(t, 2, in.Items[0].Quantity)
	assert.Equal(t, "Pune", in.ShippingAddress.City)
	assert.Equal(t, "cod", in.PaymentMethod)
	assert.Nil(t, in.PaymentProof)
}

func TestDecodePlaceOrderMultipart(t *testing.T) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("items", `[{"product":"64b7f0c2a1b2c3d4e5f60718","size":"500g","quantity":1}]`))
	require.NoError(t, w.WriteField("shippingAddress", `{"name":"Meera"}`))
	require.NoError(t, w.WriteField("paymentMethod", "ONLINE"))

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="paymentProof"; filename="receipt.png"`)
	h.Set("Content-Type", "image/png")
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG fake receipt"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/orders", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	in, closer, err := decodePlaceOrder(contextFor(req))
	require.NoError(t, err)
	defer closer.Close()

	require.Len(t, in.Items, 1)
	assert.Equal(t, "Meera", in.ShippingAddress.Name)
	assert.Equal(t, "ONLINE", in.PaymentMethod)
	require.NotNil(t, in.PaymentProof)
	assert.Equal(t, "receipt.png", in.PaymentProof.Filename)
	assert.Equal(t, "image/png", in.PaymentProof.ContentType)

	data, err := io.ReadAll(in.PaymentProof.Body)
	require.NoError(t, err)
	assert.EqualValues(t, len(data), in.PaymentProof.Size)
}

func TestDecodePlaceOrderRejectsBadJSONField(t *testing.T) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("items", `not json`))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/orders", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	_, closer, err := decodePlaceOrder(contextFor(req))
	defer closer.Close()
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "items must be valid JSON")
}
