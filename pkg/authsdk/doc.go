/*
Package authsdk is the Go client for the PetBook API.

# SDKClient vs Client

The package is organized around two types:

  - SDKClient: stateless calls to public endpoints (sign-up, token grants,
    password recovery, invite redemption, JWKS, health)
  - Client: a stateful client that holds the current session, refreshes it
    when it is about to expire, notifies listeners of auth state changes and
    exposes the tenant API (clients, pets, services, appointments, dashboard)

A typical session:

	c := authsdk.NewClient("https://petbook.example.com")

	unsubscribe := c.OnAuthStateChange(func(ctx context.Context, ch authsdk.AuthChange) {
		log.Println("auth event", ch.Event)
	})
	defer unsubscribe()

	sess, err := c.SignInWithPassword(ctx, "ana@petshop.com.br", "senha123")
	if authsdk.KindOf(err) == authsdk.KindInvalidCredentials {
		// wrong e-mail or password
	}

	summary, err := c.Dashboard(ctx)

Listeners run synchronously on the goroutine that caused the change, before
the triggering call returns.

# Errors

Every failure returned by this package is classified by KindOf into one of
the ErrorKind values. Callers branch on the kind, never on message text:

	switch authsdk.KindOf(err) {
	case authsdk.KindRateLimited:
	case authsdk.KindNetworkFailure:
	}

*Error also matches the kind sentinels with errors.Is:

	errors.Is(err, authsdk.ErrNotFound)

# Server-side errors

OAuth2Error is shared with the server, which writes it with WriteError on the
auth endpoints. Its body is {"error": ..., "error_description": ...}.
*/
package authsdk
