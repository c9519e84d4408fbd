// Package sqlite persists cache entries in a local SQLite database.
package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/slanglearn/streetspeak/pkg/streetspeak/cache"
	"github.com/slanglearn/streetspeak/pkg/streetspeak/shorts"
)

type sqliteCache struct {
	db      *sql.DB
	path    string
	entropy *ulid.MonotonicEntropy
}

// Open opens (creating if needed) the cache database at path with WAL mode
// and foreign keys enabled.
func Open(ctx context.Context, path string) (cache.Cache, error) {
	// foreign_keys is per-connection in SQLite, so it must go in the DSN
	// to apply to every pooled connection; a one-off PRAGMA would leave
	// cascade deletes broken on connections opened later.
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &sqliteCache{
		db:      db,
		path:    path,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

func (s *sqliteCache) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS cache_entries (
	id TEXT PRIMARY KEY,
	fingerprint TEXT UNIQUE NOT NULL,
	created_at TEXT NOT NULL,
	expires_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS videos (
	entry_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	video_id TEXT NOT NULL,
	title TEXT,
	description TEXT,
	channel TEXT,
	thumbnail TEXT,
	url TEXT,
	duration_seconds INTEGER,
	view_count INTEGER,
	like_count INTEGER,
	comment_count INTEGER,
	PRIMARY KEY(entry_id, position),
	FOREIGN KEY(entry_id) REFERENCES cache_entries(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS comments (
	entry_id TEXT NOT NULL,
	video_position INTEGER NOT NULL,
	position INTEGER NOT NULL,
	comment_id TEXT NOT NULL,
	text TEXT,
	author TEXT,
	like_count INTEGER,
	published_at TEXT,
	reply_count INTEGER,
	detected_slang TEXT,
	PRIMARY KEY(entry_id, video_position, position),
	FOREIGN KEY(entry_id) REFERENCES cache_entries(id) ON DELETE CASCADE
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

func (s *sqliteCache) Get(ctx context.Context, fp cache.Fingerprint) ([]shorts.Video, bool, error) {
	var entryID string
	err := s.db.QueryRowContext(ctx, `
SELECT id FROM cache_entries
WHERE fingerprint = ? AND expires_at > ?;
`, fp.Key(), now()).Scan(&entryID)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	videos, err := s.loadVideos(ctx, entryID)
	if err != nil {
		return nil, false, err
	}
	return videos, true, nil
}

func (s *sqliteCache) Put(ctx context.Context, fp cache.Fingerprint, videos []shorts.Video, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cache_entries WHERE fingerprint = ?`, fp.Key()); err != nil {
		return err
	}

	entryID := ulid.MustNew(ulid.Now(), s.entropy).String()
	created := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
INSERT INTO cache_entries (id, fingerprint, created_at, expires_at)
VALUES (?, ?, ?, ?);
`, entryID, fp.Key(), created.Format(time.RFC3339), created.Add(ttl).Format(time.RFC3339))
	if err != nil {
		return err
	}

	videoStmt, err := tx.PrepareContext(ctx, `
INSERT INTO videos (entry_id, position, video_id, title, description, channel,
	thumbnail, url, duration_seconds, view_count, like_count, comment_count)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`)
	if err != nil {
		return err
	}
	defer videoStmt.Close()

	commentStmt, err := tx.PrepareContext(ctx, `
INSERT INTO comments (entry_id, video_position, position, comment_id, text,
	author, like_count, published_at, reply_count, detected_slang)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`)
	if err != nil {
		return err
	}
	defer commentStmt.Close()

	for vi, v := range videos {
		if _, err := videoStmt.ExecContext(ctx, entryID, vi, v.ID, v.Title, v.Description,
			v.Channel, v.Thumbnail, v.URL, v.DurationSeconds, v.ViewCount, v.LikeCount, v.CommentCount); err != nil {
			return err
		}
		for ci, c := range v.Comments {
			detected, err := json.Marshal(c.DetectedTerms)
			if err != nil {
				return err
			}
			if _, err := commentStmt.ExecContext(ctx, entryID, vi, ci, c.ID, c.Text,
				c.Author, c.LikeCount, c.PublishedAt.UTC().Format(time.RFC3339), c.ReplyCount, string(detected)); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func (s *sqliteCache) GetAny(ctx context.Context, limit int) ([]shorts.Video, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT v.entry_id, v.position
FROM videos v
JOIN cache_entries e ON e.id = v.entry_id
ORDER BY e.created_at DESC, v.position ASC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type ref struct {
		entry    string
		position int
	}
	var refs []ref
	for rows.Next() {
		var r ref
		if err := rows.Scan(&r.entry, &r.position); err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var videos []shorts.Video
	for _, r := range refs {
		v, err := s.loadVideo(ctx, r.entry, r.position)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, nil
}

func (s *sqliteCache) EvictExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE expires_at <= ?`, now())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *sqliteCache) Stats(ctx context.Context) (cache.Stats, error) {
	var st cache.Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache_entries`).Scan(&st.Entries); err != nil {
		return st, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM videos`).Scan(&st.Videos); err != nil {
		return st, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments`).Scan(&st.Comments); err != nil {
		return st, err
	}
	if info, err := os.Stat(s.path); err == nil {
		st.SizeBytes = info.Size()
	}
	return st, nil
}

func (s *sqliteCache) loadVideos(ctx context.Context, entryID string) ([]shorts.Video, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT position FROM videos WHERE entry_id = ? ORDER BY position;
`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []int
	for rows.Next() {
		var p int
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var videos []shorts.Video
	for _, p := range positions {
		v, err := s.loadVideo(ctx, entryID, p)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, nil
}

func (s *sqliteCache) loadVideo(ctx context.Context, entryID string, position int) (shorts.Video, error) {
	var v shorts.Video
	err := s.db.QueryRowContext(ctx, `
SELECT video_id, title, description, channel, thumbnail, url,
	duration_seconds, view_count, like_count, comment_count
FROM videos
WHERE entry_id = ? AND position = ?;
`, entryID, position).Scan(&v.ID, &v.Title, &v.Description, &v.Channel, &v.Thumbnail,
		&v.URL, &v.DurationSeconds, &v.ViewCount, &v.LikeCount, &v.CommentCount)
	if err != nil {
		return shorts.Video{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT comment_id, text, author, like_count, published_at, reply_count, detected_slang
FROM comments
WHERE entry_id = ? AND video_position = ?
ORDER BY position;
`, entryID, position)
	if err != nil {
		return shorts.Video{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c         shorts.Comment
			published string
			detected  string
		)
		if err := rows.Scan(&c.ID, &c.Text, &c.Author, &c.LikeCount, &published, &c.ReplyCount, &detected); err != nil {
			return shorts.Video{}, err
		}
		if published != "" {
			if parsed, perr := time.Parse(time.RFC3339, published); perr == nil {
				c.PublishedAt = parsed
			}
		}
		if detected != "" {
			if err := json.Unmarshal([]byte(detected), &c.DetectedTerms); err != nil {
				return shorts.Video{}, err
			}
		}
		v.Comments = append(v.Comments, c)
	}
	return v, rows.Err()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
