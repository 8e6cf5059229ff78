package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

type registerRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userReply struct {
	User *models.PublicUser `json:"user"`
}

type registerReply struct {
	User    *models.PublicUser `json:"user"`
	Message string             `json:"message"`
}

type loginReply struct {
	User  *models.PublicUser `json:"user"`
	Token string             `json:"token"`
}

type messageReply struct {
	Message string `json:"message"`
}

type existsReply struct {
	Exists bool `json:"exists"`
}

type avatarReply struct {
	UploadURL string `json:"uploadUrl"`
	Avatar    string `json:"avatar"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	res, err := h.auth.Register(r.Context(), services.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, registerReply{
		User:    h.render(r.Context(), res.User),
		Message: res.Message,
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, loginReply{User: h.render(r.Context(), res.User), Token: res.Token})
}

// handleVerifyEmail takes the token from the query string, falling back to
// a JSON body.
func (h *Handler) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		var body struct {
			Token string `json:"token"`
		}
		if err := decodeBody(r, &body); err != nil {
			h.respondWithError(w, r, err)
			return
		}
		token = body.Token
	}

	msg, err := h.auth.VerifyEmail(r.Context(), token)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, messageReply{Message: msg})
}

func (h *Handler) handleCheckEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		var body struct {
			Email string `json:"email"`
		}
		if err := decodeBody(r, &body); err != nil {
			h.respondWithError(w, r, err)
			return
		}
		email = body.Email
	}

	exists, err := h.auth.CheckEmailExists(r.Context(), email)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, existsReply{Exists: exists})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	msg, err := h.auth.Logout(r.Context(), tokenFromContext(r.Context()))
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, messageReply{Message: msg})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, userReply{User: h.render(r.Context(), user)})
}

func (h *Handler) handleGoogle(w http.ResponseWriter, r *http.Request) {
	if h.google == nil || h.state == nil {
		h.respondWithError(w, r, errOAuthDisabled)
		return
	}

	state, err := h.state.Issue(h.google.Name())
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	http.Redirect(w, r, h.google.AuthCodeURL(state), http.StatusFound)
}

func (h *Handler) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.google == nil || h.state == nil {
		h.respondWithError(w, r, errOAuthDisabled)
		return
	}

	q := r.URL.Query()
	if err := h.state.Verify(q.Get("state"), h.google.Name()); err != nil {
		h.respondWithError(w, r, err)
		return
	}
	code := q.Get("code")
	if code == "" {
		h.respondWithError(w, r, errMissingCode)
		return
	}

	profile, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	res, err := h.auth.OAuthLogin(r.Context(), *profile)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, loginReply{User: h.render(r.Context(), res.User), Token: res.Token})
}

// handleAvatar reserves a storage key for the caller, records it as the
// avatar and returns a presigned upload URL.
func (h *Handler) handleAvatar(w http.ResponseWriter, r *http.Request) {
	if h.avatars == nil {
		h.respondWithError(w, r, errAvatarsDisabled)
		return
	}

	user, err := h.currentUser(r)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	upload, err := h.avatars.PresignUpload(r.Context(), user.ID)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	if err := h.auth.UpdateAvatar(r.Context(), user.ID, upload.Ref); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, avatarReply{UploadURL: upload.URL, Avatar: upload.Ref})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Ping(r.Context()); err != nil {
		h.logger.Warn(r.Context(), "store ping failed", "error", err)
		respondWithJSON(w, http.StatusServiceUnavailable, errorReply{Error: "store unavailable"})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	h.respondWithError(w, r, errNotFound)
}

func (h *Handler) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusMethodNotAllowed, errorReply{Error: errMethodNotAllowed.Error()})
}

func (h *Handler) currentUser(r *http.Request) (*models.PublicUser, error) {
	user, err := h.auth.ValidateToken(r.Context(), tokenFromContext(r.Context()))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, common.ErrInvalidToken
	}
	return user, nil
}

// render resolves stored avatar references into loadable URLs.
func (h *Handler) render(ctx context.Context, u *models.PublicUser) *models.PublicUser {
	if u == nil || u.Avatar == nil || h.avatars == nil {
		return u
	}
	url, err := h.avatars.Resolve(ctx, *u.Avatar)
	if err != nil {
		h.logger.Warn(ctx, "avatar resolve failed", "user_id", u.ID, "error", err)
		return u
	}
	out := *u
	out.Avatar = &url
	return &out
}
