// Package auth authenticates host requests through named schemes.
//
// Schemes are added to a service collection with [AddAuthentication] and
// [AddScheme]. Every scheme added with an options type can be replaced by a
// [FakeHandler] for that options type, which returns scripted results instead
// of checking credentials:
//
//	b := auth.AddAuthentication(c, auth.BearerScheme)
//	auth.AddJWTBearer(b, auth.BearerScheme, func(o *auth.JWTBearerOptions) {
//		o.SigningKey = "secret"
//	})
//
// Routes opt in to authorization with [Authorize] or [RequireAuthorization].
package auth
