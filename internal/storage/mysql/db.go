// Package mysql is the MySQL-backed inventory store. Room locking relies on
// SELECT ... FOR UPDATE inside the surrounding transaction.
package mysql

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/avstrong/hotelbooking/internal/hotel"
	"github.com/avstrong/hotelbooking/internal/logger"
	"github.com/avstrong/hotelbooking/internal/storage/trx"
)

//go:embed schema.sql
var schema string

type Conf struct {
	User string
	Pass string
	Host string
	Port string
	Name string
}

// DSN builds a go-sql-driver DSN with UTC time parsing.
func (c Conf) DSN() string {
	auth := c.User
	if c.Pass != "" {
		auth = fmt.Sprintf("%s:%s", c.User, c.Pass)
	}

	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC", auth, c.Host, c.Port, c.Name)
}

// Open connects to MySQL and verifies the connection.
func Open(ctx context.Context, conf Conf) (*sql.DB, error) {
	db, err := sql.Open("mysql", conf.DSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	db.SetMaxOpenConns(25)                  //nolint:gomnd
	db.SetMaxIdleConns(25)                  //nolint:gomnd
	db.SetConnMaxLifetime(30 * time.Minute) //nolint:gomnd

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second) //nolint:gomnd
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping mysql %s:%s: %w", conf.Host, conf.Port, err)
	}

	return db, nil
}

type DB struct {
	mu           sync.Mutex
	l            *logger.Logger
	db           *sql.DB
	transactions map[string]*sql.Tx
	nextTrxID    int64
}

func New(l *logger.Logger, db *sql.DB) *DB {
	//nolint:exhaustruct
	return &DB{
		l:            l,
		db:           db,
		transactions: make(map[string]*sql.Tx),
	}
}

// Migrate creates the tables when they are missing.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}

		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	d.l.LogDebug("MySQL schema is up to date")

	return nil
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (d *DB) tx(ctx context.Context) (*sql.Tx, error) {
	trxID, err := trx.IDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	tx, exists := d.transactions[trxID]
	if !exists {
		return nil, trx.NotFound(trxID)
	}

	return tx, nil
}

// q runs reads inside the caller's transaction when there is one.
func (d *DB) q(ctx context.Context) querier {
	if tx, err := d.tx(ctx); err == nil {
		return tx
	}

	return d.db
}

func (d *DB) BeginTransaction(ctx context.Context) (context.Context, error) {
	tx, err := d.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	trxID := fmt.Sprintf("trx-%d", d.nextTrxID)
	d.nextTrxID++
	d.transactions[trxID] = tx

	return trx.WithID(ctx, trxID), nil
}

func (d *DB) finish(ctx context.Context, commit bool) error {
	trxID, err := trx.IDFromContext(ctx)
	if err != nil {
		return err
	}

	d.mu.Lock()
	tx, exists := d.transactions[trxID]
	delete(d.transactions, trxID)
	d.mu.Unlock()

	if !exists {
		return trx.NotFound(trxID)
	}

	if commit {
		return tx.Commit()
	}

	return tx.Rollback()
}

func (d *DB) CommitTransaction(ctx context.Context) error {
	return d.finish(ctx, true)
}

func (d *DB) RollbackTransaction(ctx context.Context) error {
	return d.finish(ctx, false)
}

func (d *DB) SaveHotel(ctx context.Context, h *hotel.Hotel) error {
	tx, err := d.tx(ctx)
	if err != nil {
		return err
	}

	const q = `INSERT INTO hotels (code, name, city, country, street, stars, category)
               VALUES (?, ?, ?, ?, ?, ?, ?)
               ON DUPLICATE KEY UPDATE name = VALUES(name), city = VALUES(city), country = VALUES(country),
                   street = VALUES(street), stars = VALUES(stars), category = VALUES(category)`

	code := strings.ToLower(h.Code)
	if _, err := tx.ExecContext(ctx, q, code, h.Name, h.City, h.Country, h.Street, h.Stars, h.Category); err != nil {
		return fmt.Errorf("upsert hotel %s: %w", code, err)
	}

	return nil
}

func (d *DB) SaveRooms(ctx context.Context, rooms []*hotel.Room) error {
	tx, err := d.tx(ctx)
	if err != nil {
		return err
	}

	const q = `INSERT INTO rooms (hotel_code, number, beds, price_per_night, image_url)
               VALUES (?, ?, ?, ?, ?)
               ON DUPLICATE KEY UPDATE beds = VALUES(beds), price_per_night = VALUES(price_per_night),
                   image_url = VALUES(image_url)`

	for _, r := range rooms {
		code := strings.ToLower(r.HotelCode)
		if _, err := tx.ExecContext(ctx, q, code, r.Number, r.Beds, r.PricePerNight, r.ImageURL); err != nil {
			return fmt.Errorf("upsert room %d of %s: %w", r.Number, code, err)
		}
	}

	return nil
}

func (d *DB) GetHotel(ctx context.Context, code string) (*hotel.Hotel, error) {
	const q = `SELECT code, name, city, country, street, stars, category FROM hotels WHERE code = ?`

	var h hotel.Hotel

	err := d.q(ctx).QueryRowContext(ctx, q, strings.ToLower(code)).
		Scan(&h.Code, &h.Name, &h.City, &h.Country, &h.Street, &h.Stars, &h.Category)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("hotel '%s': %w", code, hotel.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("select hotel %s: %w", code, err)
	}

	return &h, nil
}

func (d *DB) ListRooms(ctx context.Context, hotelCode string) ([]*hotel.Room, error) {
	const q = `SELECT hotel_code, number, beds, price_per_night, image_url
               FROM rooms WHERE hotel_code = ? ORDER BY id`

	rows, err := d.q(ctx).QueryContext(ctx, q, strings.ToLower(hotelCode))
	if err != nil {
		return nil, fmt.Errorf("select rooms of %s: %w", hotelCode, err)
	}
	defer rows.Close()

	var rooms []*hotel.Room

	for rows.Next() {
		var r hotel.Room
		if err := rows.Scan(&r.HotelCode, &r.Number, &r.Beds, &r.PricePerNight, &r.ImageURL); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}

		rooms = append(rooms, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}

	return rooms, nil
}

// FindRoomForUpdate holds the room row lock until the transaction ends.
func (d *DB) FindRoomForUpdate(ctx context.Context, hotelCode string, number int) (*hotel.Room, error) {
	const q = `SELECT hotel_code, number, beds, price_per_night, image_url
               FROM rooms WHERE hotel_code = ? AND number = ? FOR UPDATE`

	tx, err := d.tx(ctx)
	if err != nil {
		return nil, err
	}

	var r hotel.Room

	err = tx.QueryRowContext(ctx, q, strings.ToLower(hotelCode), number).
		Scan(&r.HotelCode, &r.Number, &r.Beds, &r.PricePerNight, &r.ImageURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("room %d of hotel '%s': %w", number, hotelCode, hotel.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("lock room %d of %s: %w", number, hotelCode, err)
	}

	return &r, nil
}

func (d *DB) ReservationsForRoom(ctx context.Context, hotelCode string, number int) ([]*hotel.Reservation, error) {
	const q = `SELECT hotel_code, id, room_number, client_name, client_first_name, masked_card, arrival, departure,
                   num_persons, agency, reference, confirmation_code, total_price, status, created_at
               FROM reservations WHERE hotel_code = ? AND room_number = ? ORDER BY arrival`

	rows, err := d.q(ctx).QueryContext(ctx, q, strings.ToLower(hotelCode), number)
	if err != nil {
		return nil, fmt.Errorf("select reservations of room %d: %w", number, err)
	}
	defer rows.Close()

	var out []*hotel.Reservation

	for rows.Next() {
		var (
			r      hotel.Reservation
			status string
		)

		if err := rows.Scan(&r.HotelCode, &r.ID, &r.RoomNumber, &r.ClientName, &r.ClientFirstName, &r.MaskedCard,
			&r.Arrival, &r.Departure, &r.NumPersons, &r.Agency, &r.Reference, &r.ConfirmationCode,
			&r.TotalPrice, &status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}

		r.Status = hotel.Status(status)
		out = append(out, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations: %w", err)
	}

	return out, nil
}

func sequence(reservationID string) int64 {
	n, _ := strconv.ParseInt(strings.TrimPrefix(reservationID, "RES-"), 10, 64)

	return n
}

func (d *DB) CommitReservation(ctx context.Context, r *hotel.Reservation) error {
	tx, err := d.tx(ctx)
	if err != nil {
		return err
	}

	const q = `INSERT INTO reservations (hotel_code, id, seq, room_number, client_name, client_first_name, masked_card,
                   arrival, departure, num_persons, agency, reference, confirmation_code, total_price, status, created_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = tx.ExecContext(ctx, q, strings.ToLower(r.HotelCode), r.ID, sequence(r.ID), r.RoomNumber, r.ClientName,
		r.ClientFirstName, r.MaskedCard, r.Arrival, r.Departure, r.NumPersons, r.Agency, r.Reference,
		r.ConfirmationCode, r.TotalPrice, string(r.Status), r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert reservation %s: %w", r.ID, err)
	}

	return nil
}

// LastReservationNumber returns the highest sequence used by hotelCode, so
// id generation can resume after a restart.
func (d *DB) LastReservationNumber(ctx context.Context, hotelCode string) (int, error) {
	const q = `SELECT COALESCE(MAX(seq), 0) FROM reservations WHERE hotel_code = ?`

	var n int
	if err := d.db.QueryRowContext(ctx, q, strings.ToLower(hotelCode)).Scan(&n); err != nil {
		return 0, fmt.Errorf("select last reservation of %s: %w", hotelCode, err)
	}

	return n, nil
}
