package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rongwang/litigation-tracker/internal/identity"
	"github.com/rongwang/litigation-tracker/internal/ids"
	"github.com/rongwang/litigation-tracker/internal/models"
)

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// withTx runs fn in one transaction, rolling back on any error.
func (r *PostgresRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return mapError(err)
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	if err = fn(tx); err != nil {
		return mapError(err)
	}

	err = mapError(tx.Commit())
	return err
}

// User repository methods

const lockUsersQuery = `LOCK TABLE users IN EXCLUSIVE MODE`

func (r *PostgresRepository) CreateUser(ctx context.Context, user *models.User, limit int) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, lockUsersQuery); err != nil {
			return err
		}

		var exists bool
		err := tx.GetContext(ctx, &exists,
			`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, user.Username)
		if err != nil {
			return err
		}
		if exists {
			return ErrConflict
		}

		var count int
		if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
			return err
		}
		if limit > 0 && count >= limit {
			return ErrLimitReached
		}

		query := `
			INSERT INTO users (username, full_name, email, password_hash, role, active, created_at, updated_at)
			VALUES (:username, :full_name, :email, :password_hash, :role, :active, :created_at, :updated_at)
		`
		_, err = tx.NamedExecContext(ctx, query, user)
		return err
	})
}

func (r *PostgresRepository) GetUser(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT * FROM users WHERE username = $1`

	var user models.User
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		return nil, mapError(err)
	}

	return &user, nil
}

func (r *PostgresRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	query := `SELECT * FROM users ORDER BY username`

	users := []models.User{}
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, mapError(err)
	}

	return users, nil
}

func (r *PostgresRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

func (r *PostgresRepository) UpdateUser(
	ctx context.Context,
	username string,
	at time.Time,
	mutate UserMutation,
) (*models.User, error) {
	var user models.User
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, lockUsersQuery); err != nil {
			return err
		}

		if err := tx.GetContext(ctx, &user, `SELECT * FROM users WHERE username = $1`, username); err != nil {
			return err
		}

		var activeAdmins int
		err := tx.GetContext(ctx, &activeAdmins,
			`SELECT COUNT(*) FROM users WHERE role = $1 AND active`, string(models.RoleAdmin))
		if err != nil {
			return err
		}

		if err := mutate(&user, activeAdmins); err != nil {
			return err
		}
		user.Username = username
		user.UpdatedAt = at

		query := `
			UPDATE users
			SET full_name = :full_name, email = :email, password_hash = :password_hash,
				role = :role, active = :active, updated_at = :updated_at
			WHERE username = :username
		`
		_, err = tx.NamedExecContext(ctx, query, &user)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

const authoredQuery = `
	SELECT EXISTS(SELECT 1 FROM cases WHERE created_by = $1 OR updated_by = $1)
		OR EXISTS(SELECT 1 FROM hearing_events WHERE created_by = $1)
		OR EXISTS(SELECT 1 FROM documents WHERE uploaded_by = $1)
`

func (r *PostgresRepository) DeleteUser(ctx context.Context, username string, check UserMutation) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, lockUsersQuery); err != nil {
			return err
		}

		var user models.User
		if err := tx.GetContext(ctx, &user, `SELECT * FROM users WHERE username = $1`, username); err != nil {
			return err
		}

		var activeAdmins int
		err := tx.GetContext(ctx, &activeAdmins,
			`SELECT COUNT(*) FROM users WHERE role = $1 AND active`, string(models.RoleAdmin))
		if err != nil {
			return err
		}
		if err := check(&user, activeAdmins); err != nil {
			return err
		}

		var authored bool
		if err := tx.GetContext(ctx, &authored, authoredQuery, username); err != nil {
			return err
		}
		if authored {
			return ErrReferenced
		}

		// The foreign keys still back the check above
		_, err = tx.ExecContext(ctx, `DELETE FROM users WHERE username = $1`, username)
		return err
	})
}

// Case repository methods

const insertCaseQuery = `
	INSERT INTO cases (
		case_id, forum, status, filed_date, case_type, case_no, connected_cases,
		is_appeal, lower_court, lower_court_case_no, lower_court_order_date,
		counsel_name, counsel_contact, asg_engaged, brief_facts, affidavit_status,
		final_order_date, created_by, created_at, updated_by, updated_at
	) VALUES (
		:case_id, :forum, :status, :filed_date, :case_type, :case_no, :connected_cases,
		:is_appeal, :lower_court, :lower_court_case_no, :lower_court_order_date,
		:counsel_name, :counsel_contact, :asg_engaged, :brief_facts, :affidavit_status,
		:final_order_date, :created_by, :created_at, :updated_by, :updated_at
	)
`

// allocateTx hands out the next case identifier for year. The upsert holds
// the case_sequences row lock until the surrounding transaction ends, and
// the counter never moves backwards after a commit.
func allocateTx(ctx context.Context, tx *sqlx.Tx, year int) (string, error) {
	var seq int
	err := tx.GetContext(ctx, &seq, `
		INSERT INTO case_sequences (year, last_seq) VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET last_seq = case_sequences.last_seq + 1
		RETURNING last_seq
	`, year)
	if err != nil {
		return "", err
	}

	if seq > identity.MaxSequence {
		return "", ErrSequenceExhausted
	}
	return identity.Format(year, seq)
}

func (r *PostgresRepository) CreateCase(
	ctx context.Context,
	c *models.Case,
	parties []models.NewParty,
) ([]models.Party, error) {
	var created []models.Party
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		caseID, err := allocateTx(ctx, tx, c.FilingYear())
		if err != nil {
			return err
		}
		c.CaseID = caseID

		if c.ConnectedCases == nil {
			c.ConnectedCases = pq.StringArray{}
		}

		if _, err := tx.NamedExecContext(ctx, insertCaseQuery, c); err != nil {
			return err
		}

		created = created[:0]
		next := map[models.PartyRole]int{}
		for _, np := range parties {
			next[np.Role]++
			party := models.Party{
				ID:        uuid.New().String(),
				CaseID:    caseID,
				Role:      np.Role,
				Seq:       next[np.Role],
				Name:      np.Name,
				Address:   np.Address,
				CreatedAt: c.CreatedAt,
			}
			if err := insertPartyTx(ctx, tx, &party); err != nil {
				return err
			}
			created = append(created, party)
		}

		return nil
	})
	if err != nil {
		c.CaseID = ""
		return nil, err
	}

	return created, nil
}

func (r *PostgresRepository) GetCase(ctx context.Context, caseID string) (*models.Case, error) {
	query := `SELECT * FROM cases WHERE case_id = $1`

	var c models.Case
	if err := r.db.GetContext(ctx, &c, query, caseID); err != nil {
		return nil, mapError(err)
	}

	return &c, nil
}

// lockCaseTx loads a case and holds its row lock for the rest of the transaction.
func lockCaseTx(ctx context.Context, tx *sqlx.Tx, caseID string) (*models.Case, error) {
	var c models.Case
	if err := tx.GetContext(ctx, &c, `SELECT * FROM cases WHERE case_id = $1 FOR UPDATE`, caseID); err != nil {
		return nil, err
	}
	return &c, nil
}

func touchCaseTx(ctx context.Context, tx *sqlx.Tx, caseID, actor string, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE cases SET updated_by = $1, updated_at = $2 WHERE case_id = $3`,
		actor, at, caseID)
	return err
}

var caseOrderBy = map[models.CaseSort]string{
	models.SortFiledDesc:   "c.filed_date DESC, c.case_id ASC",
	models.SortFiledAsc:    "c.filed_date ASC, c.case_id ASC",
	models.SortUpdatedDesc: "c.updated_at DESC, c.case_id ASC",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// caseFilterClause builds the WHERE clause shared by the count and page queries.
func caseFilterClause(f models.CaseFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Status != "" {
		add("c.status = $%d", string(f.Status))
	}
	if f.Forum != "" {
		add("c.forum = $%d", string(f.Forum))
	}
	if f.FiledFrom != nil {
		add("c.filed_date >= $%d", models.DateOnly(*f.FiledFrom))
	}
	if f.FiledTo != nil {
		add("c.filed_date <= $%d", models.DateOnly(*f.FiledTo))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+likeEscaper.Replace(s)+"%")
		conds = append(conds, fmt.Sprintf(
			`(c.case_no ILIKE $%[1]d OR c.case_id ILIKE $%[1]d OR EXISTS (
				SELECT 1 FROM parties p WHERE p.case_id = c.case_id AND p.name ILIKE $%[1]d))`,
			len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *PostgresRepository) ListCases(ctx context.Context, filter models.CaseFilter) ([]models.Case, int, error) {
	filter = filter.Normalize()
	where, args := caseFilterClause(filter)

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM cases c`+where, args...); err != nil {
		return nil, 0, mapError(err)
	}

	query := fmt.Sprintf(`SELECT c.* FROM cases c%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		where, caseOrderBy[filter.Sort], len(args)+1, len(args)+2)
	args = append(args, filter.PerPage, filter.Offset())

	cases := []models.Case{}
	if err := r.db.SelectContext(ctx, &cases, query, args...); err != nil {
		return nil, 0, mapError(err)
	}

	return cases, total, nil
}

func (r *PostgresRepository) UpdateCaseDetails(
	ctx context.Context,
	caseID string,
	details models.CaseDetails,
	actor string,
	at time.Time,
) (*models.Case, error) {
	var c *models.Case
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		c, err = lockCaseTx(ctx, tx, caseID)
		if err != nil {
			return err
		}

		details.Apply(c)
		c.UpdatedBy = actor
		c.UpdatedAt = at

		query := `
			UPDATE cases SET
				forum = :forum, filed_date = :filed_date, case_type = :case_type, case_no = :case_no,
				connected_cases = :connected_cases, is_appeal = :is_appeal, lower_court = :lower_court,
				lower_court_case_no = :lower_court_case_no, lower_court_order_date = :lower_court_order_date,
				counsel_name = :counsel_name, counsel_contact = :counsel_contact, asg_engaged = :asg_engaged,
				brief_facts = :brief_facts, affidavit_status = :affidavit_status,
				final_order_date = :final_order_date, updated_by = :updated_by, updated_at = :updated_at
			WHERE case_id = :case_id
		`
		_, err = tx.NamedExecContext(ctx, query, c)
		return err
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

func (r *PostgresRepository) TransitionCase(
	ctx context.Context,
	caseID string,
	to models.CaseStatus,
	actor string,
	at time.Time,
) (*models.Case, error) {
	var c *models.Case
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		c, err = lockCaseTx(ctx, tx, caseID)
		if err != nil {
			return err
		}

		// Checked against the locked row so two racing transitions cannot both pass
		if err := models.CheckTransition(c.Status, to); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE cases SET status = $1, updated_by = $2, updated_at = $3 WHERE case_id = $4`,
			string(to), actor, at, caseID)
		if err != nil {
			return err
		}

		c.Status = to
		c.UpdatedBy = actor
		c.UpdatedAt = at
		return nil
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Party repository methods

func insertPartyTx(ctx context.Context, tx *sqlx.Tx, party *models.Party) error {
	query := `
		INSERT INTO parties (id, case_id, role, seq, name, address, created_at)
		VALUES (:id, :case_id, :role, :seq, :name, :address, :created_at)
	`
	_, err := tx.NamedExecContext(ctx, query, party)
	return err
}

func (r *PostgresRepository) AddParty(ctx context.Context, party *models.Party, actor string) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := lockCaseTx(ctx, tx, party.CaseID); err != nil {
			return err
		}

		var maxSeq int
		err := tx.GetContext(ctx, &maxSeq,
			`SELECT COALESCE(MAX(seq), 0) FROM parties WHERE case_id = $1 AND role = $2`,
			party.CaseID, string(party.Role))
		if err != nil {
			return err
		}

		// Generate a new UUID if not provided
		if party.ID == "" {
			party.ID = uuid.New().String()
		}
		party.Seq = maxSeq + 1

		if err := insertPartyTx(ctx, tx, party); err != nil {
			return err
		}

		return touchCaseTx(ctx, tx, party.CaseID, actor, party.CreatedAt)
	})
}

func (r *PostgresRepository) ListParties(ctx context.Context, caseID string) ([]models.Party, error) {
	query := `
		SELECT * FROM parties
		WHERE case_id = $1
		ORDER BY CASE role WHEN 'petitioner' THEN 0 ELSE 1 END, seq
	`

	parties := []models.Party{}
	if err := r.db.SelectContext(ctx, &parties, query, caseID); err != nil {
		return nil, mapError(err)
	}

	return parties, nil
}

// Hearing repository methods

func (r *PostgresRepository) AppendHearing(ctx context.Context, event *models.HearingEvent) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := lockCaseTx(ctx, tx, event.CaseID); err != nil {
			return err
		}

		if event.ID == "" {
			event.ID = ids.NewOrdered()
		}

		query := `
			INSERT INTO hearing_events (id, case_id, hearing_date, note, created_by, created_at)
			VALUES (:id, :case_id, :hearing_date, :note, :created_by, :created_at)
		`
		if _, err := tx.NamedExecContext(ctx, query, event); err != nil {
			return err
		}

		return touchCaseTx(ctx, tx, event.CaseID, event.CreatedBy, event.CreatedAt)
	})
}

func (r *PostgresRepository) ListHearings(ctx context.Context, caseID string) ([]models.HearingEvent, error) {
	query := `SELECT * FROM hearing_events WHERE case_id = $1 ORDER BY hearing_date, id`

	events := []models.HearingEvent{}
	if err := r.db.SelectContext(ctx, &events, query, caseID); err != nil {
		return nil, mapError(err)
	}

	return events, nil
}

func (r *PostgresRepository) UpcomingHearings(
	ctx context.Context,
	after time.Time,
	until time.Time,
) ([]models.UpcomingHearing, error) {
	// The next hearing of a case is its earliest event after today, so the
	// window test applies to that minimum rather than to every event.
	query := `
		SELECT c.case_id, c.forum, c.status, c.case_no, n.next_hearing_date
		FROM cases c
		JOIN (
			SELECT case_id, MIN(hearing_date) AS next_hearing_date
			FROM hearing_events
			WHERE hearing_date > $1
			GROUP BY case_id
		) n ON n.case_id = c.case_id
		WHERE n.next_hearing_date <= $2
		ORDER BY n.next_hearing_date, c.case_id
	`

	rows := []models.UpcomingHearing{}
	if err := r.db.SelectContext(ctx, &rows, query, after, until); err != nil {
		return nil, mapError(err)
	}

	return rows, nil
}

// Document repository methods

func (r *PostgresRepository) AttachDocument(ctx context.Context, doc *models.Document) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := lockCaseTx(ctx, tx, doc.CaseID); err != nil {
			return err
		}

		// Generate a new UUID if not provided
		if doc.ID == "" {
			doc.ID = uuid.New().String()
		}

		query := `
			INSERT INTO documents (id, case_id, doc_type, file_name, filing_date, blob_ref, uploaded_by, uploaded_at)
			VALUES (:id, :case_id, :doc_type, :file_name, :filing_date, :blob_ref, :uploaded_by, :uploaded_at)
		`
		if _, err := tx.NamedExecContext(ctx, query, doc); err != nil {
			return err
		}

		return touchCaseTx(ctx, tx, doc.CaseID, doc.UploadedBy, doc.UploadedAt)
	})
}

func (r *PostgresRepository) GetDocument(ctx context.Context, documentID string) (*models.Document, error) {
	query := `SELECT * FROM documents WHERE id = $1`

	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, documentID); err != nil {
		return nil, mapError(err)
	}

	return &doc, nil
}

func (r *PostgresRepository) ListDocuments(ctx context.Context, caseID string) ([]models.Document, error) {
	query := `
		SELECT * FROM documents
		WHERE case_id = $1
		ORDER BY filing_date DESC NULLS LAST, uploaded_at DESC
	`

	docs := []models.Document{}
	if err := r.db.SelectContext(ctx, &docs, query, caseID); err != nil {
		return nil, mapError(err)
	}

	return docs, nil
}

// Dashboard queries

func (r *PostgresRepository) CountCases(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM cases`); err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

func (r *PostgresRepository) CountCasesByStatus(ctx context.Context) ([]models.CaseCount, error) {
	return r.countCasesBy(ctx, "status")
}

func (r *PostgresRepository) CountCasesByForum(ctx context.Context) ([]models.CaseCount, error) {
	return r.countCasesBy(ctx, "forum")
}

// countCasesBy groups on a fixed column name, never on caller input.
func (r *PostgresRepository) countCasesBy(ctx context.Context, column string) ([]models.CaseCount, error) {
	query := fmt.Sprintf(
		`SELECT %[1]s AS key, COUNT(*) AS count FROM cases GROUP BY %[1]s ORDER BY %[1]s`, column)

	counts := []models.CaseCount{}
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, mapError(err)
	}

	return counts, nil
}

func (r *PostgresRepository) RecentlyUpdatedCases(ctx context.Context, limit int) ([]models.Case, error) {
	query := `SELECT * FROM cases ORDER BY updated_at DESC, case_id LIMIT $1`

	cases := []models.Case{}
	if err := r.db.SelectContext(ctx, &cases, query, limit); err != nil {
		return nil, mapError(err)
	}

	return cases, nil
}
