package httptransport

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"profiled/internal/platform/middleware"
	"profiled/internal/profile"
	"profiled/internal/ratelimit"
	"profiled/internal/transport/http/mocks"
	"profiled/internal/uploads"
	"profiled/pkg/domain"
	dErrors "profiled/pkg/domain-errors"
	"profiled/pkg/testutil"
)

//go:generate mockgen -source=handlers_profile.go -destination=mocks/profile-mocks.go -package=mocks ProfileService

type ProfileHandlerSuite struct {
	suite.Suite
	userID domain.UserID
}

func TestProfileHandlerSuite(t *testing.T) {
	suite.Run(t, new(ProfileHandlerSuite))
}

func (s *ProfileHandlerSuite) SetupSuite() {
	s.userID = domain.NewUserID()
}

func (s *ProfileHandlerSuite) newHandler(t *testing.T) (*mocks.MockProfileService, *chi.Mux, *uploads.Manager) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mockService := mocks.NewMockProfileService(ctrl)

	manager, err := uploads.NewManager(t.TempDir(), 5<<20, logger)
	require.NoError(t, err)

	handler := NewProfileHandler(mockService, manager, logger)
	r := chi.NewRouter()
	r.Use(s.injectIdentity())
	handler.Register(r)
	return mockService, r, manager
}

func (s *ProfileHandlerSuite) injectIdentity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, testutil.WithIdentity(r, s.userID, "user@example.com"))
		})
	}
}

func (s *ProfileHandlerSuite) activeUser() *profile.User {
	return &profile.User{
		ID:      s.userID,
		Name:    "Jane Doe",
		Email:   "user@example.com",
		Bio:     "Engineer",
		Company: "Acme",
	}
}

func (s *ProfileHandlerSuite) TestGetProfile() {
	s.T().Run("returns the profile - 200", func(t *testing.T) {
		mockService, router, _ := s.newHandler(t)
		mockService.EXPECT().GetProfile(gomock.Any(), s.userID).Return(s.activeUser(), nil)

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/profile"))

		testutil.AssertStatus(t, rr, http.StatusOK)
		got := testutil.UnmarshalData[profile.User](t, rr)
		assert.Equal(t, "Jane Doe", got.Name)
		assert.Equal(t, "user@example.com", got.Email)
	})

	s.T().Run("maps a missing user to 404", func(t *testing.T) {
		mockService, router, _ := s.newHandler(t)
		mockService.EXPECT().GetProfile(gomock.Any(), s.userID).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "user not found"))

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/profile"))

		testutil.AssertStatus(t, rr, http.StatusNotFound)
		testutil.AssertErrorMessage(t, rr, "user not found")
	})
}

func (s *ProfileHandlerSuite) TestUpdateProfile() {
	s.T().Run("JSON update - 200", func(t *testing.T) {
		mockService, router, _ := s.newHandler(t)
		name := "Anna"
		expected := profile.UpdateRequest{Name: &name}
		mockService.EXPECT().UpdateProfile(gomock.Any(), s.userID, expected, gomock.Nil()).
			Return(s.activeUser(), nil)

		req := testutil.NewJSONRequest(t, http.MethodPut, "/profile", map[string]string{"name": "Anna"})
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		env := testutil.UnmarshalEnvelope(t, rr)
		assert.True(t, env.Success)
		assert.Equal(t, "Profile updated successfully", env.Message)
	})

	s.T().Run("invalid JSON body - 400", func(t *testing.T) {
		mockService, router, _ := s.newHandler(t)
		mockService.EXPECT().UpdateProfile(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		req := httptest.NewRequest(http.MethodPut, "/profile", bytes.NewBufferString("{bad-json"))
		req.Header.Set("Content-Type", "application/json")
		rr := testutil.DoRequest(router, s.authed(req))

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
		testutil.AssertErrorMessage(t, rr, "invalid request body")
	})

	s.T().Run("cooldown rejection - 429 with retry hint", func(t *testing.T) {
		mockService, router, _ := s.newHandler(t)
		next := time.Now().Add(3 * time.Minute).UTC()
		mockService.EXPECT().UpdateProfile(gomock.Any(), s.userID, gomock.Any(), gomock.Nil()).
			Return(nil, &ratelimit.Error{NextAllowed: next})

		req := testutil.NewJSONRequest(t, http.MethodPut, "/profile", map[string]string{"name": "Anna"})
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatus(t, rr, http.StatusTooManyRequests)
		env := testutil.UnmarshalEnvelope(t, rr)
		assert.False(t, env.Success)
		assert.Equal(t, "Please wait 5 minutes between profile updates", env.Message)
		assert.NotEmpty(t, env.NextAllowedUpdate)
	})

	s.T().Run("validation failure from the service - 400", func(t *testing.T) {
		mockService, router, _ := s.newHandler(t)
		mockService.EXPECT().UpdateProfile(gomock.Any(), s.userID, gomock.Any(), gomock.Nil()).
			Return(nil, dErrors.New(dErrors.CodeInvalidInput, "name must be between 2 and 50 characters"))

		req := testutil.NewJSONRequest(t, http.MethodPut, "/profile", map[string]string{"name": "A"})
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
		testutil.AssertErrorMessage(t, rr, "name must be between 2 and 50 characters")
	})

	s.T().Run("multipart update stages the picture", func(t *testing.T) {
		mockService, router, manager := s.newHandler(t)
		mockService.EXPECT().
			UpdateProfile(gomock.Any(), s.userID, gomock.Any(), gomock.Not(gomock.Nil())).
			DoAndReturn(func(ctx context.Context, userID domain.UserID, req profile.UpdateRequest, pictureRef *string) (*profile.User, error) {
				require.NotNil(t, req.Name)
				assert.Equal(t, "Anna", *req.Name)
				require.NotNil(t, pictureRef)
				assert.Contains(t, *pictureRef, "/uploads/profiles/")
				return s.activeUser(), nil
			})

		rr := testutil.DoRequest(router, s.multipartRequest(t, map[string]string{"name": "Anna"}, true))

		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Len(t, stagedFiles(t, manager), 1)
	})

	s.T().Run("staged picture is removed when the update fails", func(t *testing.T) {
		mockService, router, manager := s.newHandler(t)
		mockService.EXPECT().
			UpdateProfile(gomock.Any(), s.userID, gomock.Any(), gomock.Not(gomock.Nil())).
			Return(nil, dErrors.New(dErrors.CodeConflict, "email already exists"))

		rr := testutil.DoRequest(router, s.multipartRequest(t, map[string]string{"email": "taken@example.com"}, true))

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
		testutil.AssertErrorMessage(t, rr, "email already exists")
		assert.Empty(t, stagedFiles(t, manager))
	})

	s.T().Run("multipart update without a file passes a nil ref", func(t *testing.T) {
		mockService, router, _ := s.newHandler(t)
		mockService.EXPECT().UpdateProfile(gomock.Any(), s.userID, gomock.Any(), gomock.Nil()).
			Return(s.activeUser(), nil)

		rr := testutil.DoRequest(router, s.multipartRequest(t, map[string]string{"bio": "New bio"}, false))

		testutil.AssertStatus(t, rr, http.StatusOK)
	})
}

func (s *ProfileHandlerSuite) TestDeleteProfile() {
	s.T().Run("soft-deletes - 200", func(t *testing.T) {
		mockService, router, _ := s.newHandler(t)
		mockService.EXPECT().DeleteProfile(gomock.Any(), s.userID).Return(nil)

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodDelete, "/profile"))

		testutil.AssertStatus(t, rr, http.StatusOK)
		env := testutil.UnmarshalEnvelope(t, rr)
		assert.True(t, env.Success)
		assert.Equal(t, "Profile deleted successfully", env.Message)
	})

	s.T().Run("second delete - 404", func(t *testing.T) {
		mockService, router, _ := s.newHandler(t)
		mockService.EXPECT().DeleteProfile(gomock.Any(), s.userID).
			Return(dErrors.New(dErrors.CodeNotFound, "user not found"))

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodDelete, "/profile"))

		testutil.AssertStatus(t, rr, http.StatusNotFound)
		testutil.AssertErrorMessage(t, rr, "user not found")
	})
}

func (s *ProfileHandlerSuite) authed(req *http.Request) *http.Request {
	return testutil.WithIdentity(req, s.userID, "user@example.com")
}

func (s *ProfileHandlerSuite) multipartRequest(t *testing.T, fields map[string]string, withFile bool) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if withFile {
		fw, err := w.CreateFormFile("profilePicture", "avatar.png")
		require.NoError(t, err)
		_, err = fw.Write([]byte("\x89PNG\r\n\x1a\n0000000000000000"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPut, "/profile", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func stagedFiles(t *testing.T, manager *uploads.Manager) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(manager.Dir(), "profiles"))
	require.NoError(t, err)
	return entries
}

func TestRequireAuth_UniformRejection(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	verifier := failingVerifier{}

	r := chi.NewRouter()
	r.Use(middleware.RequireAuth(verifier, logger))
	r.Get("/profile", func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for unauthenticated requests")
	})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not a bearer token", "Basic dXNlcjpwYXNz"},
		{"rejected token", "Bearer not-a-real-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewRequest(t, http.MethodGet, "/profile")
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rr := testutil.DoRequest(r, req)

			testutil.AssertStatus(t, rr, http.StatusUnauthorized)
			testutil.AssertErrorMessage(t, rr, "invalid or expired token")
		})
	}
}

type failingVerifier struct{}

func (failingVerifier) Verify(ctx context.Context, token string) (middleware.Identity, error) {
	return middleware.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token")
}
