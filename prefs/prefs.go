// Package prefs persists small client preferences and the session's
// refresh credential in a local SQLite database, so both survive a
// client restart.
package prefs

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	taskverse "github.com/taskverse/client-go"
)

// Theme is the display theme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

const (
	themeKey        = "theme"
	refreshTokenKey = "refresh_token"
)

// Preference is one stored key/value pair.
type Preference struct {
	bun.BaseModel `bun:"table:preferences,alias:p"`

	Key       string    `bun:"key,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// Store is the local preference database. It implements
// taskverse.CredentialStore for the persisted refresh credential.
type Store struct {
	db     *bun.DB
	logger taskverse.Logger
}

// Option customizes store construction.
type Option func(*Store)

// WithLogger overrides the default logger.
func WithLogger(logger taskverse.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open opens (creating if needed) the preference database at path.
// Use ":memory:" for an ephemeral store.
func Open(path string, opts ...Option) (*Store, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to open preference database")
	}
	sqldb.SetMaxOpenConns(1)

	store := &Store{
		db:     bun.NewDB(sqldb, sqlitedialect.New()),
		logger: taskverse.DefaultLogger(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}

	if _, err := store.db.NewCreateTable().
		Model((*Preference)(nil)).
		IfNotExists().
		Exec(context.Background()); err != nil {
		store.db.Close()
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to initialize preference table")
	}

	return store, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the stored value for key, or "" when unset.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	pref := new(Preference)
	err := s.db.NewSelect().
		Model(pref).
		Where("key = ?", key).
		Scan(ctx)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", goerrors.Wrap(err, goerrors.CategoryOperation, "failed to read preference")
	}
	return pref.Value, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	pref := &Preference{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}

	_, err := s.db.NewInsert().
		Model(pref).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to write preference")
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.NewDelete().
		Model((*Preference)(nil)).
		Where("key = ?", key).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to delete preference")
	}
	return nil
}

// Theme returns the stored display theme, defaulting to light.
func (s *Store) Theme(ctx context.Context) (Theme, error) {
	value, err := s.Get(ctx, themeKey)
	if err != nil {
		return ThemeLight, err
	}
	if value == "" {
		return ThemeLight, nil
	}
	return Theme(value), nil
}

// SetTheme stores the display theme.
func (s *Store) SetTheme(ctx context.Context, theme Theme) error {
	if err := validation.Validate(string(theme),
		validation.Required,
		validation.In(string(ThemeLight), string(ThemeDark)),
	); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "unsupported theme")
	}
	return s.Set(ctx, themeKey, string(theme))
}

// SavedCredential implements taskverse.CredentialStore.
func (s *Store) SavedCredential() (string, error) {
	return s.Get(context.Background(), refreshTokenKey)
}

// SaveCredential implements taskverse.CredentialStore.
func (s *Store) SaveCredential(refreshToken string) error {
	if refreshToken == "" {
		return s.ClearCredential()
	}
	return s.Set(context.Background(), refreshTokenKey, refreshToken)
}

// ClearCredential implements taskverse.CredentialStore.
func (s *Store) ClearCredential() error {
	return s.Delete(context.Background(), refreshTokenKey)
}
