// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/lineup/internal/matching"
	"github.com/tomtom215/lineup/internal/models"
)

// Key prefixes for BadgerDB storage
const (
	festivalKeyPrefix      = "festival:"
	artistKeyPrefix        = "artist:"
	artistNameKeyPrefix    = "artist_name:"    // artist_name:<normalized>:<id> -> id
	artistCatalogKeyPrefix = "artist_catalog:" // artist_catalog:<source>:<catalog id> -> id
)

// Config selects where the repository lives.
type Config struct {
	Path     string
	InMemory bool
}

// Badger implements Repository on BadgerDB.
type Badger struct {
	db     *badger.DB
	logger zerolog.Logger
}

var _ Repository = (*Badger)(nil)

// Open opens (or creates) the database described by cfg.
func Open(cfg Config, logger zerolog.Logger) (*Badger, error) {
	var opts badger.Options
	switch {
	case cfg.InMemory:
		opts = badger.DefaultOptions("").WithInMemory(true)
	case cfg.Path != "":
		opts = badger.DefaultOptions(cfg.Path)
	default:
		return nil, models.NewOpError(models.KindConfiguration, "open", "repository", errors.New("storage path is required unless in_memory is set"))
	}
	opts = opts.WithLogger(nil) // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	logger = logger.With().Str("component", "repository").Logger()
	logger.Info().Str("path", cfg.Path).Bool("in_memory", cfg.InMemory).Msg("Repository opened")
	return &Badger{db: db, logger: logger}, nil
}

// NewBadgerFromDB wraps an already open database.
func NewBadgerFromDB(db *badger.DB, logger zerolog.Logger) *Badger {
	return &Badger{db: db, logger: logger.With().Str("component", "repository").Logger()}
}

// Close closes the database.
func (b *Badger) Close() error {
	return b.db.Close()
}

// GetFestivalByID returns the festival, or nil when absent.
func (b *Badger) GetFestivalByID(ctx context.Context, id string) (*models.Festival, error) {
	var f models.Festival
	found, err := b.get(festivalKeyPrefix+id, &f)
	if err != nil || !found {
		return nil, err
	}
	return &f, nil
}

// GetAllFestivals returns every stored festival ordered by start date.
func (b *Badger) GetAllFestivals(ctx context.Context) ([]models.Festival, error) {
	var out []models.Festival
	err := b.scan(festivalKeyPrefix, func(val []byte) error {
		var f models.Festival
		if err := json.Unmarshal(val, &f); err != nil {
			return fmt.Errorf("unmarshal festival: %w", err)
		}
		out = append(out, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartDate != out[j].StartDate {
			return out[i].StartDate < out[j].StartDate
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// SaveFestival stores f under its ID, replacing any previous version.
func (b *Badger) SaveFestival(ctx context.Context, f *models.Festival) error {
	if f == nil || f.ID == "" {
		return models.NewOpError(models.KindValidation, "save_festival", "repository", errors.New("festival id is required"))
	}
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal festival: %w", err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(festivalKeyPrefix+f.ID), data); err != nil {
			return fmt.Errorf("set festival: %w", err)
		}
		return nil
	})
}

// GetArtistByID returns the artist, or nil when absent.
func (b *Badger) GetArtistByID(ctx context.Context, id string) (*models.Artist, error) {
	if id == "" {
		return nil, nil
	}
	var a models.Artist
	found, err := b.get(artistKeyPrefix+id, &a)
	if err != nil || !found {
		return nil, err
	}
	return &a, nil
}

// SearchArtistByName returns the best scoring artist. An exact normalized
// name hit short-circuits with score 1.
func (b *Badger) SearchArtistByName(ctx context.Context, name string) (*models.Artist, float64, error) {
	norm := matching.Normalize(name)
	if norm == "" {
		return nil, 0, nil
	}

	var exactID string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(artistNameKeyPrefix + norm + ":")
		it.Seek(prefix)
		if !it.ValidForPrefix(prefix) {
			return nil
		}
		return it.Item().Value(func(val []byte) error {
			exactID = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, 0, fmt.Errorf("search artist index: %w", err)
	}
	if exactID != "" {
		a, err := b.GetArtistByID(ctx, exactID)
		if err != nil || a != nil {
			return a, 1, err
		}
	}

	var (
		best      *models.Artist
		bestScore float64
	)
	err = b.scan(artistKeyPrefix, func(val []byte) error {
		var a models.Artist
		if err := json.Unmarshal(val, &a); err != nil {
			return fmt.Errorf("unmarshal artist: %w", err)
		}
		if score := matching.MatchScore(name, a.Name); score > bestScore {
			best, bestScore = &a, score
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return best, bestScore, nil
}

// GetArtistByCatalogID returns the artist linked to catalogID in source.
func (b *Badger) GetArtistByCatalogID(ctx context.Context, source, catalogID string) (*models.Artist, error) {
	if source == "" || catalogID == "" {
		return nil, nil
	}
	var id string
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(catalogKey(source, catalogID)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("get catalog index: %w", err)
	}
	return b.GetArtistByID(ctx, id)
}

// SaveArtist stores a and rewrites its name and catalog indexes.
func (b *Badger) SaveArtist(ctx context.Context, a *models.Artist) error {
	if a == nil || a.ID == "" {
		return models.NewOpError(models.KindValidation, "save_artist", "repository", errors.New("artist id is required"))
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal artist: %w", err)
	}

	return b.db.Update(func(txn *badger.Txn) error {
		old, err := loadArtist(txn, a.ID)
		if err != nil {
			return err
		}
		if old != nil {
			if err := deleteIndexes(txn, old); err != nil {
				return err
			}
		}
		if err := txn.Set([]byte(artistKeyPrefix+a.ID), data); err != nil {
			return fmt.Errorf("set artist: %w", err)
		}
		for _, key := range indexKeys(a) {
			if err := txn.Set([]byte(key), []byte(a.ID)); err != nil {
				return fmt.Errorf("set artist index: %w", err)
			}
		}
		return nil
	})
}

// DeleteArtist removes the artist and its indexes. Deleting a missing
// artist is not an error.
func (b *Badger) DeleteArtist(ctx context.Context, id string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		old, err := loadArtist(txn, id)
		if err != nil || old == nil {
			return err
		}
		if err := deleteIndexes(txn, old); err != nil {
			return err
		}
		if err := txn.Delete([]byte(artistKeyPrefix + id)); err != nil {
			return fmt.Errorf("delete artist: %w", err)
		}
		return nil
	})
}

// GetAllArtists returns every stored artist ordered by name.
func (b *Badger) GetAllArtists(ctx context.Context) ([]models.Artist, error) {
	var out []models.Artist
	err := b.scan(artistKeyPrefix, func(val []byte) error {
		var a models.Artist
		if err := json.Unmarshal(val, &a); err != nil {
			return fmt.Errorf("unmarshal artist: %w", err)
		}
		out = append(out, a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (b *Badger) get(key string, v any) (bool, error) {
	found := false
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	return found, nil
}

// scan calls fn with every value under prefix. The value slice is only
// valid during the call.
func (b *Badger) scan(prefix string, fn func(val []byte) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := it.Item().Value(fn); err != nil {
				return err
			}
		}
		return nil
	})
}

func loadArtist(txn *badger.Txn, id string) (*models.Artist, error) {
	item, err := txn.Get([]byte(artistKeyPrefix + id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get artist: %w", err)
	}
	var a models.Artist
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &a)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal artist: %w", err)
	}
	return &a, nil
}

func deleteIndexes(txn *badger.Txn, a *models.Artist) error {
	for _, key := range indexKeys(a) {
		if err := txn.Delete([]byte(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete artist index: %w", err)
		}
	}
	return nil
}

func indexKeys(a *models.Artist) []string {
	var keys []string
	if norm := matching.Normalize(a.Name); norm != "" {
		keys = append(keys, artistNameKeyPrefix+norm+":"+a.ID)
	}
	for source, id := range a.CatalogIDs {
		if id != "" {
			keys = append(keys, catalogKey(source, id))
		}
	}
	return keys
}

func catalogKey(source, id string) string {
	return artistCatalogKeyPrefix + source + ":" + id
}
