package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/artpar/zacre/pkg/envelope"
)

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// signIn accepts JSON from the client bundle or a plain form post.
// Form posts are answered with a 303 so the sign-in page works without
// JavaScript.
func (h *handlers) signIn(w http.ResponseWriter, r *http.Request) {
	form := strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")

	var in signInRequest
	if form {
		if err := r.ParseForm(); err != nil {
			envelope.WriteErrorMessage(w, http.StatusBadRequest, "Invalid request: "+err.Error())
			return
		}
		in.Email, in.Password = r.PostForm.Get("email"), r.PostForm.Get("password")
	} else if err := decodeBody(r, &in); err != nil {
		envelope.WriteError(w, err)
		return
	}

	res, err := h.svc.Auth.SignIn(r.Context(), in.Email, in.Password)
	if err != nil {
		if form {
			http.Redirect(w, r, "/sign-in?error=1", http.StatusSeeOther)
			return
		}
		envelope.WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	if form {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	envelope.WriteRedirect(w, "/admin", "Signed in successfully")
}

func (h *handlers) signOut(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	envelope.WriteRedirect(w, "/", "Signed out")
}
