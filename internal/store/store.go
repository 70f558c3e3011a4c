package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	enrollPrefix      = "mfa:enroll:"
	backupPrefix      = "mfa:backup:"
	rateSubjectPrefix = "mfa:rate:subject:"
	rateIPPrefix      = "mfa:rate:ip:"
)

// Enrollment is the temporary state between generating a secret and the
// subject proving possession with a first code. It expires if never
// confirmed, so an unconfirmed secret is never usable.
type Enrollment struct {
	EnrollID  string `json:"enroll_id"`
	Subject   string `json:"subject"`
	SecretEnc string `json:"secret_enc"`
	Issuer    string `json:"issuer"`
	Label     string `json:"label"`
	Period    uint   `json:"period"`
	Digits    int    `json:"digits"`
	ExpiresAt int64  `json:"expires_at"`
	CreatedAt int64  `json:"created_at"`
}

// BackupCodeEntry is a single backup code (hash only stored).
type BackupCodeEntry struct {
	CodeHash string `json:"code_hash"`
	UsedAt   int64  `json:"used_at"` // 0 = not used
}

// Store handles Redis persistence for enrollments, backup codes, and rate limits.
type Store struct {
	rdb        *redis.Client
	enrollTTL  time.Duration
	rateSubTTL time.Duration
	rateIPTTL  time.Duration
}

// NewStore creates a Store with the given Redis client and TTLs.
func NewStore(rdb *redis.Client, enrollTTL, rateSubTTL, rateIPTTL time.Duration) *Store {
	return &Store{
		rdb:        rdb,
		enrollTTL:  enrollTTL,
		rateSubTTL: rateSubTTL,
		rateIPTTL:  rateIPTTL,
	}
}

// SaveEnrollment saves a temporary enrollment; TTL is applied.
func (s *Store) SaveEnrollment(ctx context.Context, e *Enrollment) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, enrollPrefix+e.EnrollID, data, s.enrollTTL).Err()
}

// GetEnrollment returns the enrollment by enroll_id, or nil if not found/expired.
func (s *Store) GetEnrollment(ctx context.Context, enrollID string) (*Enrollment, error) {
	data, err := s.rdb.Get(ctx, enrollPrefix+enrollID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var e Enrollment
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// DeleteEnrollment removes the enrollment (after confirm).
func (s *Store) DeleteEnrollment(ctx context.Context, enrollID string) error {
	return s.rdb.Del(ctx, enrollPrefix+enrollID).Err()
}

// IncrRateSubject increments subject rate counter; returns new count.
func (s *Store) IncrRateSubject(ctx context.Context, subject string) (int64, error) {
	key := rateSubjectPrefix + subject
	pipe := s.rdb.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.rateSubTTL)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// IncrRateIP increments IP rate counter; returns new count.
func (s *Store) IncrRateIP(ctx context.Context, ip string) (int64, error) {
	key := rateIPPrefix + ip
	pipe := s.rdb.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.rateIPTTL)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// SaveBackupCodes stores backup code hashes for a subject (JSON array).
func (s *Store) SaveBackupCodes(ctx context.Context, subject string, entries []BackupCodeEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, backupPrefix+subject, data, 0).Err()
}

// GetBackupCodes returns backup code entries for the subject.
func (s *Store) GetBackupCodes(ctx context.Context, subject string) ([]BackupCodeEntry, error) {
	data, err := s.rdb.Get(ctx, backupPrefix+subject).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []BackupCodeEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteBackupCodes removes all backup codes for the subject.
func (s *Store) DeleteBackupCodes(ctx context.Context, subject string) error {
	return s.rdb.Del(ctx, backupPrefix+subject).Err()
}

// ConsumeBackupCode finds a matching unused backup code by hash, marks it used, returns true.
func (s *Store) ConsumeBackupCode(ctx context.Context, subject string, codeHash string) (bool, error) {
	entries, err := s.GetBackupCodes(ctx, subject)
	if err != nil || len(entries) == 0 {
		return false, err
	}
	now := time.Now().Unix()
	for i := range entries {
		if entries[i].CodeHash == codeHash && entries[i].UsedAt == 0 {
			entries[i].UsedAt = now
			return s.SaveBackupCodes(ctx, subject, entries) == nil, nil
		}
	}
	return false, nil
}
