package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-contacts/app/entity"
)

type ContactProfileRepository struct {
	db DBTX
}

func NewContactProfileRepository(db DBTX) *ContactProfileRepository {
	return &ContactProfileRepository{db: db}
}

func (r *ContactProfileRepository) ListActive(ctx context.Context) ([]*entity.ContactProfile, error) {
	query := `
		SELECT user_id, kind, mobile, phone, email, communication_email
		FROM contact_profiles
		WHERE deleted_at IS NULL
		ORDER BY user_id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]*entity.ContactProfile, 0)
	for rows.Next() {
		profile, err := scanContactProfile(rows.Scan)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

// ListChangedSince returns every row touched at or after since, oldest first.
// Rows on the boundary are returned again on the next call; replaying them is
// harmless because ingestion is idempotent.
func (r *ContactProfileRepository) ListChangedSince(ctx context.Context, since time.Time) ([]*entity.ProfileChange, error) {
	query := `
		SELECT user_id, kind, mobile, phone, email, communication_email, deleted_at, updated_at
		FROM contact_profiles
		WHERE updated_at >= ?
		ORDER BY updated_at, user_id
	`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	changes := make([]*entity.ProfileChange, 0)
	for rows.Next() {
		var (
			deletedAt sql.NullTime
			updatedAt time.Time
		)
		profile, err := scanContactProfile(rows.Scan, &deletedAt, &updatedAt)
		if err != nil {
			return nil, err
		}
		changes = append(changes, &entity.ProfileChange{
			Profile:   profile,
			Deleted:   deletedAt.Valid,
			UpdatedAt: updatedAt,
		})
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return changes, nil
}

func (r *ContactProfileRepository) FindByUserID(ctx context.Context, userID string) (*entity.ContactProfile, error) {
	query := `
		SELECT user_id, kind, mobile, phone, email, communication_email
		FROM contact_profiles
		WHERE user_id = ? AND deleted_at IS NULL
	`
	row := r.db.QueryRowContext(ctx, query, userID)
	profile, err := scanContactProfile(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func scanContactProfile(scan rowScanner, extra ...interface{}) (*entity.ContactProfile, error) {
	var (
		profile            entity.ContactProfile
		kind               sql.NullString
		mobile             sql.NullString
		phone              sql.NullString
		email              sql.NullString
		communicationEmail sql.NullString
	)

	dest := []interface{}{
		&profile.UserID,
		&kind,
		&mobile,
		&phone,
		&email,
		&communicationEmail,
	}
	dest = append(dest, extra...)

	if err := scan(dest...); err != nil {
		return nil, err
	}

	profile.Kind = entity.ParseUserKind(kind.String)
	profile.Mobile = mobile.String
	profile.Phone = phone.String
	profile.Email = email.String
	profile.CommunicationEmail = communicationEmail.String

	return &profile, nil
}
