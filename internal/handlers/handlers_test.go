package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/dinehub/internal/config"
	"github.com/example/dinehub/internal/database"
	"github.com/example/dinehub/internal/handlers"
	"github.com/example/dinehub/internal/models"
	"github.com/example/dinehub/internal/routes"
	"github.com/example/dinehub/internal/utils"
)

// mailerStub records outgoing mail instead of delivering it. Setting fail
// simulates an unreachable SMTP host.
type sentMail struct {
	To      string
	Subject string
	HTML    string
}

type mailerStub struct {
	sent []sentMail
	fail bool
}

func (m *mailerStub) Send(to, subject, html string) error {
	if m.fail {
		return errors.New("smtp unreachable")
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, HTML: html})
	return nil
}

var otpPattern = regexp.MustCompile(`<strong>(\d{6})</strong>`)

// lastCode extracts the OTP from the most recently captured mail.
func (m *mailerStub) lastCode(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, m.sent, "no mail was sent")
	match := otpPattern.FindStringSubmatch(m.sent[len(m.sent)-1].HTML)
	require.Len(t, match, 2, "mail does not contain a 6-digit code")
	return match[1]
}

type testEnv struct {
	app    *fiber.App
	db     *gorm.DB
	mailer *mailerStub
	cfg    *config.Config
}

// newTestEnv wires the full route table against an in-memory sqlite database
// and a miniredis instance, mirroring production wiring.
func newTestEnv(t *testing.T, mutators ...func(*config.Config)) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to open sqlite")
	require.NoError(t, database.Migrate(db), "migration failed")

	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	cfg := &config.Config{
		JWTSecret:         "test-secret",
		TokenExpires:      time.Hour,
		OTPExpires:        5 * time.Minute,
		SessionExpires:    time.Hour,
		UploadDir:         t.TempDir(),
		VerifyOrderTotals: true,
	}
	for _, mutate := range mutators {
		mutate(cfg)
	}

	mailer := &mailerStub{}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
	})
	routes.Register(app, db, rdb, mailer, cfg)

	return &testEnv{app: app, db: db, mailer: mailer, cfg: cfg}
}

// postJSON issues a JSON request and decodes the envelope.
func (e *testEnv) postJSON(t *testing.T, path string, body any) (int, map[string]any) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	return e.do(t, req)
}

func (e *testEnv) get(t *testing.T, path string, headers map[string]string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return e.do(t, req)
}

func (e *testEnv) do(t *testing.T, req *http.Request) (int, map[string]any) {
	t.Helper()

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded), "response is not JSON: %s", raw)

	return resp.StatusCode, decoded
}

// seedUser inserts a verified user with the given plaintext password.
func (e *testEnv) seedUser(t *testing.T, email, password string, verified bool) *models.User {
	t.Helper()

	hash, err := utils.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		FirstName:    "Jamie",
		LastName:     "Cruz",
		Address:      "12 Mango St",
		ContactNo:    "09171234567",
		Email:        email,
		PasswordHash: hash,
		IsVerified:   verified,
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) seedProduct(t *testing.T, name string, price float64) *models.Product {
	t.Helper()

	product := &models.Product{
		Name:     name,
		Price:    price,
		Category: "mains",
		Status:   "available",
	}
	require.NoError(t, e.db.Create(product).Error)
	return product
}

// orderForm builds the multipart body the mobile client submits on placeOrder.
func orderForm(t *testing.T, fields map[string]string, withProof bool) (*bytes.Buffer, string) {
	t.Helper()

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if withProof {
		fw, err := w.CreateFormFile("proofOfPayment", "proof.jpg")
		require.NoError(t, err)
		_, err = fw.Write([]byte("fake-image-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return buf, w.FormDataContentType()
}
