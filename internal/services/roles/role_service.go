package roles

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/elitedecor/backend/internal/models"
)

// RoleService answers "what role does this email have right now".
// Every protected request goes through it, so lookups are cached in
// Redis for a short window; promote/demote must call Invalidate.
type RoleService struct {
	DB  *gorm.DB
	RDB *redis.Client
	TTL time.Duration
}

func NewRoleService(db *gorm.DB, rdb *redis.Client) *RoleService {
	return &RoleService{DB: db, RDB: rdb, TTL: 60 * time.Second}
}

func cacheKey(email string) string { return "role:" + email }

func (s *RoleService) RoleByEmail(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if s.RDB != nil {
		cached, err := s.RDB.Get(ctx, cacheKey(email)).Result()
		if err == nil && cached != "" {
			return cached, nil
		}
		if err != nil && err != redis.Nil {
			// cache outage must not take authz down with it
			log.Printf("role cache read failed for %s: %v", email, err)
		}
	}

	var user models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return "", err
	}
	role := string(user.Role)

	if s.RDB != nil {
		if err := s.RDB.Set(ctx, cacheKey(email), role, s.TTL).Err(); err != nil {
			log.Printf("role cache write failed for %s: %v", email, err)
		}
	}

	return role, nil
}

// Invalidate drops the cached role after a promote/demote so the next
// request sees the new role immediately.
func (s *RoleService) Invalidate(ctx context.Context, email string) {
	if s.RDB == nil {
		return
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.RDB.Del(ctx, cacheKey(email)).Err(); err != nil {
		log.Printf("role cache invalidate failed for %s: %v", email, err)
	}
}
