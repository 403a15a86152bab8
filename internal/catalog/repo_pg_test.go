package catalog

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoUpsertVenue(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	venue := VenueProfile{VenueID: "VEN-7", Name: "Harbor Hall", City: "Boston", MaxCapacity: 320}

	mock.ExpectExec("INSERT INTO venues").
		WithArgs(venue.VenueID, venue.Name, venue.City, venue.MaxCapacity, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.UpsertVenue(context.Background(), venue); err != nil {
		t.Fatalf("UpsertVenue: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetRequestDecodesDocument(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	rows := sqlmock.NewRows([]string{"data"}).
		AddRow([]byte(`{"event_id":"EVT-2026-028","attendee_count":280,"location_requirements":{"cities":["Chicago, IL"]}}`))
	mock.ExpectQuery("SELECT data FROM event_requests").
		WithArgs("EVT-2026-028").
		WillReturnRows(rows)

	repo := &PGRepo{DB: db}
	req, err := repo.GetRequest(context.Background(), "EVT-2026-028")
	if err != nil {
		t.Fatalf("GetRequest: %v", err)
	}
	if req.AttendeeCount != 280 || len(req.LocationRequirements.Cities) != 1 {
		t.Fatalf("unexpected request %+v", req)
	}
}

func TestPGRepoGetClientNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT data FROM clients").
		WithArgs("CLI-404").
		WillReturnError(sql.ErrNoRows)

	repo := &PGRepo{DB: db}
	if _, err := repo.GetClient(context.Background(), "CLI-404"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
