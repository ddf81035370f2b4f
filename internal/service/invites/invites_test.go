package invites

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furkanYanteri1/squadz-site/internal/logger"
	"github.com/furkanYanteri1/squadz-site/internal/service/auth"
)

func newTestService(t *testing.T) (*InviteService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := &InviteService{
		DB:  db,
		Log: logger.NewLogger("invite-service-test"),
		Auth: &auth.AuthService{
			DB:     db,
			Log:    logger.NewLogger("auth-service-test"),
			Secret: "test-secret",
		},
		SiteURL: "http://localhost:3000",
	}
	return svc, mock
}

func TestCreateInvite_ExpiresPriorPending(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(queryInviterProfile).
		WithArgs("inviter-1").
		WillReturnRows(sqlmock.NewRows([]string{"team_id"}).AddRow("T1"))
	// Older pending invites for the email become expired before the new
	// insert, keeping at most one pending invite per email.
	mock.ExpectExec(queryExpirePending).
		WithArgs("a@x.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(queryInsertInvite).
		WithArgs(sqlmock.AnyArg(), "a@x.com", "inviter-1", "T1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	body := bytes.NewBufferString(`{"email":"a@x.com","invited_by":"inviter-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/invite", body)
	w := httptest.NewRecorder()

	svc.CreateInvite(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success   bool   `json:"success"`
		InviteURL string `json:"inviteUrl"`
		Invite    struct {
			Email  string  `json:"email"`
			TeamID *string `json:"team_id"`
			Status string  `json:"status"`
		} `json:"invite"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "a@x.com", resp.Invite.Email)
	require.NotNil(t, resp.Invite.TeamID)
	assert.Equal(t, "T1", *resp.Invite.TeamID)
	assert.Equal(t, "pending", resp.Invite.Status)
	assert.Contains(t, resp.InviteURL, "http://localhost:3000?invite_id=")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInvite_NullTeamForSuperuser(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(queryInviterProfile).
		WithArgs("super-1").
		WillReturnRows(sqlmock.NewRows([]string{"team_id"}).AddRow(nil))
	mock.ExpectExec(queryExpirePending).
		WithArgs("b@x.com").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(queryInsertInvite).
		WithArgs(sqlmock.AnyArg(), "b@x.com", "super-1", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	body := bytes.NewBufferString(`{"email":"b@x.com","invited_by":"super-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/invite", body)
	w := httptest.NewRecorder()

	svc.CreateInvite(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInvite_InviterNotFound(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(queryInviterProfile).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	body := bytes.NewBufferString(`{"email":"a@x.com","invited_by":"ghost"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/invite", body)
	w := httptest.NewRecorder()

	svc.CreateInvite(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Inviter profile not found")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInvite_MissingFields(t *testing.T) {
	svc, mock := newTestService(t)

	body := bytes.NewBufferString(`{"email":"a@x.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/invite", body)
	w := httptest.NewRecorder()

	svc.CreateInvite(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func acceptRequest(inviteID, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/invite/"+inviteID+"/accept", bytes.NewBufferString(body))
	return mux.SetURLVars(req, map[string]string{"id": inviteID})
}

func TestAcceptInvite_InvalidOrExpired(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(queryPendingInvite).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	w := httptest.NewRecorder()
	svc.AcceptInvite(w, acceptRequest("nope", `{"password":"secret1"}`))

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid or expired invite")
	// No writes happen after the terminal fetch failure.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptInvite_ShortPassword(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(queryPendingInvite).
		WithArgs("inv-1").
		WillReturnRows(pendingInviteRow("inv-1", "a@x.com", "inviter-1", "T1"))

	w := httptest.NewRecorder()
	svc.AcceptInvite(w, acceptRequest("inv-1", `{"password":"short"}`))

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Password must be at least 6 characters")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptInvite_ShortTeamNameRejectedBeforeMutation(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(queryPendingInvite).
		WithArgs("inv-2").
		WillReturnRows(pendingInviteRow("inv-2", "b@x.com", "super-1", ""))

	w := httptest.NewRecorder()
	svc.AcceptInvite(w, acceptRequest("inv-2", `{"password":"secret1","team_name":"x"}`))

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Team name must be at least 2 characters")
	// Neither the account nor the team was touched.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptInvite_ExistingTeamHappyPath(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(queryPendingInvite).
		WithArgs("inv-3").
		WillReturnRows(pendingInviteRow("inv-3", "a@x.com", "inviter-1", "T1"))
	mock.ExpectQuery(`SELECT id FROM accounts WHERE email = ?`).
		WithArgs("a@x.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO accounts (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`).
		WithArgs(sqlmock.AnyArg(), "a@x.com", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(queryUpsertProfile).
		WithArgs(sqlmock.AnyArg(), "T1", "inviter-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(queryAcceptInvite).
		WithArgs("inv-3").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := httptest.NewRecorder()
	svc.AcceptInvite(w, acceptRequest("inv-3", `{"password":"secret1"}`))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
		User  struct {
			Email  string  `json:"email"`
			Role   string  `json:"role"`
			TeamID *string `json:"team_id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "a@x.com", resp.User.Email)
	assert.Equal(t, "member", resp.User.Role)
	require.NotNil(t, resp.User.TeamID)
	assert.Equal(t, "T1", *resp.User.TeamID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptInvite_NewTeamCollision(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(queryPendingInvite).
		WithArgs("inv-4").
		WillReturnRows(pendingInviteRow("inv-4", "c@x.com", "super-1", ""))
	mock.ExpectQuery(`SELECT id FROM accounts WHERE email = ?`).
		WithArgs("c@x.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO accounts (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`).
		WithArgs(sqlmock.AnyArg(), "c@x.com", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(queryTeamIDByName).
		WithArgs("Rockets").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("T9"))

	w := httptest.NewRecorder()
	svc.AcceptInvite(w, acceptRequest("inv-4", `{"password":"secret1","team_name":"Rockets"}`))

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Team name already exists")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptInvite_NewTeamCreated(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(queryPendingInvite).
		WithArgs("inv-5").
		WillReturnRows(pendingInviteRow("inv-5", "d@x.com", "super-1", ""))
	mock.ExpectQuery(`SELECT id FROM accounts WHERE email = ?`).
		WithArgs("d@x.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO accounts (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`).
		WithArgs(sqlmock.AnyArg(), "d@x.com", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(queryTeamIDByName).
		WithArgs("Comets").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(queryInsertTeam).
		WithArgs(sqlmock.AnyArg(), "Comets", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(queryUpsertProfile).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "super-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(queryAcceptInvite).
		WithArgs("inv-5").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := httptest.NewRecorder()
	svc.AcceptInvite(w, acceptRequest("inv-5", `{"password":"secret1","team_name":" Comets "}`))

	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptInvite_ClosureFailureDoesNotRollBack(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(queryPendingInvite).
		WithArgs("inv-6").
		WillReturnRows(pendingInviteRow("inv-6", "e@x.com", "inviter-1", "T1"))
	mock.ExpectQuery(`SELECT id FROM accounts WHERE email = ?`).
		WithArgs("e@x.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO accounts (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`).
		WithArgs(sqlmock.AnyArg(), "e@x.com", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(queryUpsertProfile).
		WithArgs(sqlmock.AnyArg(), "T1", "inviter-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(queryAcceptInvite).
		WithArgs("inv-6").
		WillReturnError(sql.ErrConnDone)

	w := httptest.NewRecorder()
	svc.AcceptInvite(w, acceptRequest("inv-6", `{"password":"secret1"}`))

	// A failed closure update is logged but the acceptance still succeeds.
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

// pendingInviteRow builds the row shape of queryPendingInvite. An empty
// teamID produces a NULL column.
func pendingInviteRow(id, email, invitedBy, teamID string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "email", "invited_by", "team_id", "status", "created_at"})
	if teamID == "" {
		rows.AddRow(id, email, invitedBy, nil, "pending", int64(1700000000))
	} else {
		rows.AddRow(id, email, invitedBy, teamID, "pending", int64(1700000000))
	}
	return rows
}
