package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/gastrogenius/restaurant-pos/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
)

const (
	sessionName   = "possess"
	sessionUserID = "user_id"
	identityKey   = "identity"
)

func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", pkgerrors.Wrap(err, "failed to hash password")
	}
	return string(hash), nil
}

// Users checks credentials against the users table.
type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

// Login returns the identity for a valid username/password pair. Unknown users
// and wrong passwords both yield ErrInvalidCredentials.
func (u *Users) Login(ctx context.Context, username, password string) (Identity, error) {
	var user models.User
	err := u.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return Identity{}, pkgerrors.Wrap(err, "failed to load user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Identity{}, ErrInvalidCredentials
	}
	return identityOf(user), nil
}

func (u *Users) Find(ctx context.Context, id uint) (Identity, error) {
	var user models.User
	if err := u.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return Identity{}, pkgerrors.Wrap(err, "failed to load user")
	}
	return identityOf(user), nil
}

func identityOf(user models.User) Identity {
	return Identity{UserID: user.ID, Username: user.Username, Role: NormalizeRole(string(user.Role))}
}

// TokenVerifier turns a bearer token into an identity.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (Identity, error)
}

const sessionMaxAge = 12 * 60 * 60

// Sessions keeps the login in a signed cookie that scripts cannot read and
// other sites cannot send along.
func Sessions(secret string) gin.HandlerFunc {
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sessions.Sessions(sessionName, store)
}

// StartSession remembers the user in the cookie session.
func StartSession(c *gin.Context, id Identity) error {
	sess := sessions.Default(c)
	sess.Set(sessionUserID, id.UserID)
	return sess.Save()
}

func EndSession(c *gin.Context) error {
	sess := sessions.Default(c)
	sess.Clear()
	return sess.Save()
}

// Authenticate resolves the caller from a bearer token (when a verifier is
// configured) or from the session cookie. It never aborts; RequireIdentity does.
func Authenticate(users *Users, verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		const prefix = "Bearer "
		if header := c.GetHeader("Authorization"); verifier != nil && strings.HasPrefix(header, prefix) {
			id, err := verifier.Verify(c.Request.Context(), strings.TrimPrefix(header, prefix))
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
				return
			}
			c.Set(identityKey, id)
			c.Next()
			return
		}

		userID, ok := sessions.Default(c).Get(sessionUserID).(uint)
		if ok && userID != 0 {
			if id, err := users.Find(c.Request.Context(), userID); err == nil {
				c.Set(identityKey, id)
			}
		}
		c.Next()
	}
}

// Current returns the identity set by Authenticate.
func Current(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := Current(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// Require lets the request through only if the caller may perform op.
func Require(op Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := Current(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if !CanPerform(id, op) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": ErrForbidden.Error()})
			return
		}
		c.Next()
	}
}
