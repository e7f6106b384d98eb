package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"grab-a-time/internal/api"
	"grab-a-time/internal/auth"
)

type ctxKey string

const OwnerIDKey ctxKey = "oid"

// ownerIDParam is where the gin middleware leaves the owner id.
const ownerIDParam = "owner_id"

// skip auth for these
var open = map[string]bool{
	"/grabatime.v1.MeetingService/Register": true,
	"/grabatime.v1.MeetingService/Login":    true,
}

// OwnerIDFromContext returns the authenticated owner set by Auth.
func OwnerIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(OwnerIDKey).(string)
	return id, ok && id != ""
}

func bearer(header string) string {
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func Auth(secret string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if open[info.FullMethod] {
			return next(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		// token from authorization: Bearer <jwt>
		raw := ""
		if vals := md.Get("authorization"); len(vals) > 0 {
			raw = bearer(vals[0])
		}
		if raw == "" {
			return nil, status.Error(codes.Unauthenticated, "no token")
		}

		claims, err := auth.ParseToken(raw, secret)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "bad token")
		}

		ctx = context.WithValue(ctx, OwnerIDKey, claims.OwnerID)
		return next(ctx, req)
	}
}

// OwnerAuth is the HTTP counterpart of Auth. The token comes from the
// Authorization header or, for browsers, the access_token cookie.
func OwnerAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearer(c.GetHeader("Authorization"))
		if raw == "" {
			raw, _ = c.Cookie("access_token")
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.Error[any]("no token"))
			return
		}
		claims, err := auth.ParseToken(raw, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.Error[any]("bad token"))
			return
		}
		c.Set(ownerIDParam, claims.OwnerID)
		c.Next()
	}
}

// OwnerID returns the owner OwnerAuth authenticated.
func OwnerID(c *gin.Context) string {
	return c.GetString(ownerIDParam)
}
