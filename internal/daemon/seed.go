package daemon

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/orangelab-kr/backoffice-api/internal/config"
	"github.com/orangelab-kr/backoffice-api/internal/db/controller/permissiongroup"
	"github.com/orangelab-kr/backoffice-api/internal/db/controller/user"
	"github.com/orangelab-kr/backoffice-api/internal/db/models"
	"github.com/orangelab-kr/backoffice-api/internal/uniuri"
)

const seedPasswordLen = 24

// seed creates the initial admin group and user when the user table is
// empty. The generated password is logged exactly once; rotate it after
// the first login.
func seed(_ *config.Config, db *gorm.DB) {
	var count int64
	db.Model(&models.User{}).Count(&count)

	if count > 0 {
		return
	}

	group, err := permissiongroup.Create(db, permissiongroup.CreateInput{
		Name:        "admins",
		Description: "initial administrator group",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed permission group")
		return
	}

	password := uniuri.NewLen(seedPasswordLen)

	admin, err := user.Create(db, user.CreateInput{
		Username:          "admin",
		Email:             "admin@localhost",
		Phone:             "+821000000000",
		Password:          password,
		PermissionGroupID: group.PermissionGroupID,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin user")
		return
	}

	log.Warn().
		Str("email", admin.Email).
		Str("password", password).
		Msg("seeded initial admin user, change the password after first login")
}
