package handler

import (
	"context"
	"net/http"

	"fitcommunity/config"
	"fitcommunity/internal/domain"
	"fitcommunity/internal/logging"
	"fitcommunity/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"
)

const oauthStateCookie = "oauth_state"

// googleIdentity is what sign-in needs from Google, however it was obtained.
type googleIdentity struct {
	ID, Email, Name, Picture string
}

type GoogleOAuthHandler struct {
	cfg     *config.OAuthConfig
	authSvc *service.AuthService
	// overridable in tests
	verifyIDToken func(ctx context.Context, token, audience string) (*googleIdentity, error)
}

func NewGoogleOAuthHandler(cfg *config.OAuthConfig, authSvc *service.AuthService) *GoogleOAuthHandler {
	return &GoogleOAuthHandler{cfg: cfg, authSvc: authSvc, verifyIDToken: verifyGoogleIDToken}
}

func (h *GoogleOAuthHandler) OAuth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.cfg.GoogleClientID,
		ClientSecret: h.cfg.GoogleClientSecret,
		RedirectURL:  h.cfg.GoogleRedirectURL,
		Scopes:       []string{googleoauth.UserinfoEmailScope, googleoauth.UserinfoProfileScope},
		Endpoint:     google.Endpoint,
	}
}

func (h *GoogleOAuthHandler) configured(c *gin.Context) bool {
	if h.cfg.GoogleClientID == "" {
		respondError(c, domain.UpstreamUnavailable("Google sign-in", nil))
		return false
	}
	return true
}

// Redirect sends the browser to the Google consent screen.
func (h *GoogleOAuthHandler) Redirect(c *gin.Context) {
	if !h.configured(c) {
		return
	}
	state := uuid.NewString()
	c.SetCookie(oauthStateCookie, state, 600, "/", "", c.Request.TLS != nil, true)
	c.Redirect(http.StatusFound, h.OAuth2Config().AuthCodeURL(state, oauth2.AccessTypeOnline))
}

// Callback exchanges the code, reads the Google profile and signs the user in.
func (h *GoogleOAuthHandler) Callback(c *gin.Context) {
	if !h.configured(c) {
		return
	}
	if want, err := c.Cookie(oauthStateCookie); err != nil || want == "" || want != c.Query("state") {
		respondError(c, domain.Invalid("invalid oauth state"))
		return
	}
	code := c.Query("code")
	if code == "" {
		respondError(c, domain.Invalid("missing code"))
		return
	}
	ctx := c.Request.Context()
	conf := h.OAuth2Config()
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		respondError(c, domain.Unauthenticated("google code exchange failed"))
		return
	}
	api, err := googleoauth.NewService(ctx, option.WithTokenSource(conf.TokenSource(ctx, tok)))
	if err != nil {
		respondError(c, domain.Upstream("Google", err))
		return
	}
	info, err := api.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		respondError(c, domain.Upstream("Google", err))
		return
	}
	h.signIn(c, googleIdentity{ID: info.Id, Email: info.Email, Name: info.Name, Picture: info.Picture})
}

// Token accepts an ID token obtained by a mobile Google sign-in SDK.
func (h *GoogleOAuthHandler) Token(c *gin.Context) {
	if !h.configured(c) {
		return
	}
	var req struct {
		IDToken string `json:"id_token" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	id, err := h.verifyIDToken(c.Request.Context(), req.IDToken, h.cfg.GoogleClientID)
	if err != nil {
		logging.Ctx(c.Request.Context()).Warn().Err(err).Msg("google id token rejected")
		respondError(c, domain.Unauthenticated("invalid id_token"))
		return
	}
	h.signIn(c, *id)
}

func (h *GoogleOAuthHandler) signIn(c *gin.Context, id googleIdentity) {
	if id.ID == "" || id.Email == "" {
		respondError(c, domain.Unauthenticated("google account has no email"))
		return
	}
	u, pair, isNew, err := h.authSvc.LoginWithGoogle(id.ID, id.Email, id.Name, id.Picture)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if isNew {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"user": u.Account(), "tokens": pair, "is_new": isNew})
}

func verifyGoogleIDToken(ctx context.Context, token, audience string) (*googleIdentity, error) {
	p, err := idtoken.Validate(ctx, token, audience)
	if err != nil {
		return nil, err
	}
	claim := func(k string) string {
		s, _ := p.Claims[k].(string)
		return s
	}
	return &googleIdentity{ID: p.Subject, Email: claim("email"), Name: claim("name"), Picture: claim("picture")}, nil
}
