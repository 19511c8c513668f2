// Package taskverse provides the client-side session core for the
// TaskVerse job board: the session store, the typed auth error
// taxonomy, and the refetch signal that coordinates cache
// invalidation across data-fetching surfaces.
//
// Session lifecycle:
//   - The Store is the single source of truth for the current
//     Identity. It starts in StateUnknown and resolves to
//     StateAnonymous or StateAuthenticated via Restore, which replays
//     a persisted refresh credential through the configured
//     AuthProvider. Dependent surfaces must treat StateUnknown as
//     "cannot decide yet" and render a neutral placeholder.
//   - All identity mutation flows through the store operations
//     (SignIn, SignInWithProvider, Register, UpdateProfile, SignOut)
//     plus Terminate, the forced-termination path invoked by the
//     authenticated HTTP client when the backend rejects a credential.
//
// Error mapping:
//   - Provider adapters map provider-specific error codes to the
//     typed errors in this package exactly once, at the store
//     boundary. Consumers branch on the Is* helpers or render
//     UserMessage; nothing outside provider packages matches raw
//     provider strings.
package taskverse
