package admin

import (
	"time"

	"github.com/google/uuid"
)

type ContextKey string

const AdminKey ContextKey = "admin"

// SystemID owns records created without an interactive admin.
var SystemID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// SystemName is stamped on changes the engine makes on its own, e.g. completion.
const SystemName = "system"

type Admin struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Email      string    `db:"email" json:"email"`
	Username   string    `db:"username" json:"username"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	Provider   *string   `db:"provider" json:"provider,omitempty"`
	ProviderID *string   `db:"provider_id" json:"-"`
	AvatarURL  *string   `db:"avatar_url" json:"avatar_url,omitempty"`
}
