package utils

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
)

type FileKeyStrategy string

const (
	StrategyFlat      FileKeyStrategy = "flat"
	StrategyDateBased FileKeyStrategy = "date_based"
	StrategyUserBased FileKeyStrategy = "user_based"
)

var (
	unsafeChars   = regexp.MustCompile(`[^\p{L}\p{N}_\-.]`)
	repeatedChars = regexp.MustCompile(`[_\-.]{2,}`)
)

// FileKeyGenerator lays out object keys in the archive bucket.
type FileKeyGenerator struct {
	strategy   FileKeyStrategy
	prefix     string
	maxNameLen int
	now        func() time.Time
}

func NewFileKeyGenerator(strategy FileKeyStrategy, prefix string) *FileKeyGenerator {
	return &FileKeyGenerator{
		strategy:   strategy,
		prefix:     prefix,
		maxNameLen: 64,
		now:        time.Now,
	}
}

// GenerateFileKey builds the key for objectID (a run id) owned by ownerID, with
// extension ext (".json").
func (fkg *FileKeyGenerator) GenerateFileKey(objectID, ownerID, ext string) string {
	name := fkg.cleanName(objectID) + ext
	switch fkg.strategy {
	case StrategyDateBased:
		now := fkg.now().UTC()
		return fmt.Sprintf("%s/%s/%s/%s/%s", fkg.prefix, now.Format("2006"), now.Format("01"), now.Format("02"), name)
	case StrategyUserBased:
		owner := "anonymous"
		if ownerID != "" {
			// hashed so user ids never appear in bucket listings
			owner = fkg.hashString(ownerID)[:12]
		}
		return fmt.Sprintf("%s/users/%s/%s", fkg.prefix, owner, name)
	default:
		return fmt.Sprintf("%s/%s", fkg.prefix, name)
	}
}

func (fkg *FileKeyGenerator) cleanName(name string) string {
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeChars.ReplaceAllString(name, "_")
	name = repeatedChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_-.")
	if len(name) > fkg.maxNameLen {
		name = strings.ToValidUTF8(name[:fkg.maxNameLen], "")
	}
	if name == "" {
		name = "object"
	}
	return name
}

func (fkg *FileKeyGenerator) hashString(s string) string {
	hash := md5.Sum([]byte(s))
	return hex.EncodeToString(hash[:])
}
