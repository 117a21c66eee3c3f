package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"sneaker-catalog/apps/catalog/model"
	"sneaker-catalog/apps/catalog/store"
	"sneaker-catalog/apps/catalog/store/storetest"
	"sneaker-catalog/pkg/config"
	"sneaker-catalog/pkg/jwt"
	"sneaker-catalog/pkg/limiter"
	"sneaker-catalog/pkg/storage"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	dir, err := os.MkdirTemp("", "sentinel")
	if err != nil {
		panic(err)
	}
	os.Setenv("SENTINEL_LOG_DIR", dir)
	if err := limiter.Init(nil); err != nil {
		panic(err)
	}
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

// recorder collects published events.
type recorder struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (r *recorder) Publish(_ context.Context, key string, _ interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	return r.err
}

func (r *recorder) Close() error { return nil }

func (r *recorder) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...)
}

type env struct {
	t      *testing.T
	db     *gorm.DB
	fs     afero.Fs
	h      *Handler
	r      *gin.Engine
	events *recorder
	user   *model.User
	token  string
}

func newEnv(t *testing.T, opts ...func(*Deps)) *env {
	t.Helper()
	db := storetest.Open(t)
	fs := afero.NewMemMapFs()
	users := store.NewUserStore(db)
	user, err := users.Create(context.Background(), "admin", "secret-pass", true)
	require.NoError(t, err)

	manager := jwt.NewManager(config.JWTConfig{Secret: "test", Issuer: "test", AccessTTL: time.Minute, RefreshTTL: time.Hour})
	token, err := manager.GenerateToken(int64(user.ID), user.Username, jwt.TypeAccess)
	require.NoError(t, err)

	events := &recorder{}
	deps := Deps{
		Brands:     store.NewBrandStore(db),
		Shoes:      store.NewShoeStore(db),
		Images:     store.NewImageStore(db),
		Users:      users,
		Storage:    storage.New(fs, "/media/"),
		JWT:        manager,
		Events:     events,
		Log:        zap.NewNop(),
		Pagination: config.PaginationConfig{PageSize: 20, MaxPageSize: 100},
	}
	for _, o := range opts {
		o(&deps)
	}
	h := New(deps)
	return &env{
		t: t, db: db, fs: fs, h: h, events: events, user: user, token: token,
		r: NewRouter(h, RouterOptions{ServiceName: "catalog-test", ServeMedia: true}),
	}
}

type envelope struct {
	Code   int                 `json:"code"`
	Msg    string              `json:"msg"`
	Data   json.RawMessage     `json:"data"`
	Errors map[string][]string `json:"errors"`
}

type result struct {
	*httptest.ResponseRecorder
	t *testing.T
}

func (r result) envelope() envelope {
	r.t.Helper()
	var e envelope
	require.NoError(r.t, json.Unmarshal(r.Body.Bytes(), &e), r.Body.String())
	return e
}

// data decodes the data member into v.
func (r result) data(v interface{}) {
	r.t.Helper()
	require.NoError(r.t, json.Unmarshal(r.envelope().Data, v))
}

func (e *env) do(req *http.Request, authed bool) result {
	if authed {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return result{ResponseRecorder: w, t: e.t}
}

func (e *env) json(method, path string, body interface{}, authed bool) result {
	e.t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.t, err)
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.do(req, authed)
}

func (e *env) get(path string) result {
	return e.json(http.MethodGet, path, nil, false)
}

type upload struct {
	field, name string
	data        []byte
}

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)

func pngUpload(name string) upload {
	return upload{field: "images", name: name, data: pngBytes}
}

func (e *env) multipart(method, path string, values map[string]string, files []upload, authed bool) result {
	e.t.Helper()
	form := url.Values{}
	for k, v := range values {
		form.Set(k, v)
	}
	return e.multipartForm(method, path, form, files, authed)
}

// multipartForm keeps repeated values in order.
func (e *env) multipartForm(method, path string, values url.Values, files []upload, authed bool) result {
	e.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, vs := range values {
		for _, v := range vs {
			require.NoError(e.t, w.WriteField(k, v))
		}
	}
	for _, f := range files {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.name+`"`)
		hdr.Set("Content-Type", "application/octet-stream")
		part, err := w.CreatePart(hdr)
		require.NoError(e.t, err)
		_, err = part.Write(f.data)
		require.NoError(e.t, err)
	}
	require.NoError(e.t, w.Close())
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return e.do(req, authed)
}

func (e *env) count(m interface{}, where ...interface{}) int64 {
	e.t.Helper()
	var n int64
	q := e.db.Model(m)
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	require.NoError(e.t, q.Count(&n).Error)
	return n
}

// fakeIndex answers searches with fixed ids or an error.
type fakeIndex struct {
	mu      sync.Mutex
	ids     []uint
	total   int64
	err     error
	indexed []uint
	deleted []uint
}

func (f *fakeIndex) IndexShoe(_ context.Context, s model.Shoe) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, s.ID)
	return nil
}

func (f *fakeIndex) DeleteShoe(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIndex) Search(context.Context, store.ShoeFilter, store.Page) ([]uint, int64, error) {
	return f.ids, f.total, f.err
}

var errIndexDown = errors.New("elastic: no available connection")

func (e *env) rawJSON(method, path, body string) result {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return e.do(req, true)
}
