package domain

import "strings"

// Bucket is an advisory topical classification assigned during ingestion.
// It can narrow retrieval as an optional filter but never partitions
// data: only owner identity does that.
type Bucket string

// Known buckets.
const (
	// BucketPersonal holds personal notes, preferences, and life details.
	BucketPersonal Bucket = "PERSONAL"

	// BucketCreative holds creative writing, ideas, and drafts.
	BucketCreative Bucket = "CREATIVE"

	// BucketProject holds work and project material.
	BucketProject Bucket = "PROJECT"

	// BucketUnspecified is the fallback when classification fails or the
	// classifier is not configured.
	BucketUnspecified Bucket = "UNSPECIFIED"
)

// IsValid returns true if the bucket is recognised.
func (b Bucket) IsValid() bool {
	switch b {
	case BucketPersonal, BucketCreative, BucketProject, BucketUnspecified:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b Bucket) String() string {
	return string(b)
}

// ParseBucket maps a raw classifier label onto a known bucket.
// Unknown labels fall back to BucketUnspecified rather than failing;
// classification is advisory and must never block ingestion.
func ParseBucket(raw string) Bucket {
	b := Bucket(strings.ToUpper(strings.TrimSpace(raw)))
	if b.IsValid() {
		return b
	}
	return BucketUnspecified
}
