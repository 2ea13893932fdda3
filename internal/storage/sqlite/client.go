package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/rentradar/backend/internal/storage/models"
	"github.com/rentradar/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS properties (
		id TEXT PRIMARY KEY,
		landlord_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		city TEXT NOT NULL,
		postcode TEXT NOT NULL,
		property_type TEXT NOT NULL,
		bedrooms INTEGER NOT NULL,
		bathrooms INTEGER NOT NULL,
		furnishing_status TEXT NOT NULL,
		square_feet INTEGER,
		price_per_month REAL NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_properties_landlord ON properties(landlord_id);
	CREATE INDEX IF NOT EXISTS idx_properties_city_type ON properties(city, property_type);
	CREATE INDEX IF NOT EXISTS idx_properties_status ON properties(status);

	CREATE TABLE IF NOT EXISTS historical_listings (
		id TEXT PRIMARY KEY,
		city TEXT NOT NULL,
		property_type TEXT NOT NULL,
		bedrooms INTEGER NOT NULL,
		bathrooms INTEGER NOT NULL,
		price_per_month REAL NOT NULL,
		listed_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_historical_city_type ON historical_listings(city, property_type);

	CREATE TABLE IF NOT EXISTS fraud_reports (
		id TEXT PRIMARY KEY,
		property_id TEXT NOT NULL,
		landlord_id TEXT NOT NULL,
		report_type TEXT NOT NULL,
		fraud_score REAL NOT NULL,
		risk_level TEXT NOT NULL,
		reasons TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reports_property ON fraud_reports(property_id);
	CREATE INDEX IF NOT EXISTS idx_reports_landlord ON fraud_reports(landlord_id);
	CREATE INDEX IF NOT EXISTS idx_reports_created ON fraud_reports(created_at);

	CREATE TABLE IF NOT EXISTS user_preferences (
		user_id TEXT PRIMARY KEY,
		city TEXT,
		property_type TEXT,
		price_min REAL,
		price_max REAL,
		min_bedrooms INTEGER,
		furnishing_status TEXT,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_interactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		property_id TEXT NOT NULL,
		action TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_interactions_user ON user_interactions(user_id);
	CREATE INDEX IF NOT EXISTS idx_interactions_property ON user_interactions(property_id);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) LoadHistoricalListings(ctx context.Context) ([]models.HistoricalListing, error) {
	query := `SELECT id, city, property_type, bedrooms, bathrooms, price_per_month, listed_at FROM historical_listings`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load historical listings: %w", err)
	}
	defer rows.Close()

	var listings []models.HistoricalListing
	for rows.Next() {
		var l models.HistoricalListing
		var listedAt int64

		err := rows.Scan(&l.ID, &l.City, &l.PropertyType, &l.Bedrooms, &l.Bathrooms, &l.PricePerMonth, &listedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		l.ListedAt = time.Unix(listedAt, 0)
		listings = append(listings, l)
	}

	return listings, rows.Err()
}

// GetActiveProperties returns up to limit active listings, newest first.
// The cap keeps per-request recommendation scoring cost bounded.
func (c *Client) GetActiveProperties(ctx context.Context, limit int) ([]models.Property, error) {
	query := `
		SELECT id, landlord_id, title, description, city, postcode, property_type,
			bedrooms, bathrooms, furnishing_status, COALESCE(square_feet, 0),
			price_per_month, status, created_at
		FROM properties
		WHERE status = 'active'
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := c.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get active properties: %w", err)
	}
	defer rows.Close()

	var properties []models.Property
	for rows.Next() {
		var p models.Property
		var createdAt int64

		err := rows.Scan(&p.ID, &p.LandlordID, &p.Title, &p.Description, &p.City, &p.Postcode,
			&p.PropertyType, &p.Bedrooms, &p.Bathrooms, &p.FurnishingStatus, &p.SquareFeet,
			&p.PricePerMonth, &p.Status, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		p.CreatedAt = time.Unix(createdAt, 0)
		properties = append(properties, p)
	}

	return properties, rows.Err()
}

func (c *Client) CountLandlordListings(ctx context.Context, landlordID string) (int, error) {
	query := `SELECT COUNT(*) FROM properties WHERE landlord_id = ? AND status = 'active'`

	var count int
	err := c.db.QueryRowContext(ctx, query, landlordID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count landlord listings: %w", err)
	}

	return count, nil
}

func (c *Client) InsertFraudReport(ctx context.Context, report *models.FraudReport) error {
	reasonsJSON, _ := json.Marshal(report.Reasons)

	query := `
		INSERT INTO fraud_reports (id, property_id, landlord_id, report_type, fraud_score, risk_level, reasons, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.ExecContext(ctx, query,
		report.ID,
		report.PropertyID,
		report.LandlordID,
		report.ReportType,
		report.FraudScore,
		report.RiskLevel,
		string(reasonsJSON),
		report.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert fraud report: %w", err)
	}

	logger.Info("Fraud report stored",
		zap.String("report_id", report.ID),
		zap.String("property_id", report.PropertyID),
		zap.Float64("fraud_score", report.FraudScore),
	)

	return nil
}

// UpsertUserPreferences replaces the stored preferences for a user;
// latest write wins.
func (c *Client) UpsertUserPreferences(ctx context.Context, prefs *models.UserPreferences) error {
	query := `
		INSERT INTO user_preferences (user_id, city, property_type, price_min, price_max, min_bedrooms, furnishing_status, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			city = excluded.city,
			property_type = excluded.property_type,
			price_min = excluded.price_min,
			price_max = excluded.price_max,
			min_bedrooms = excluded.min_bedrooms,
			furnishing_status = excluded.furnishing_status,
			updated_at = excluded.updated_at
	`

	_, err := c.db.ExecContext(ctx, query,
		prefs.UserID,
		prefs.City,
		prefs.PropertyType,
		prefs.PriceMin,
		prefs.PriceMax,
		prefs.MinBedrooms,
		prefs.FurnishingStatus,
		prefs.UpdatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to upsert user preferences: %w", err)
	}

	logger.Debug("User preferences upserted", zap.String("user_id", prefs.UserID))
	return nil
}

func (c *Client) CountUserInteractions(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM user_interactions WHERE user_id = ?`

	var count int
	err := c.db.QueryRowContext(ctx, query, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count user interactions: %w", err)
	}

	return count, nil
}

// CoInteractionWeights returns, for each property the given user has not
// interacted with, how many times users who share an interaction with this
// user also interacted with that property. Higher weight means a stronger
// collaborative signal.
func (c *Client) CoInteractionWeights(ctx context.Context, userID string) (map[string]int, error) {
	query := `
		SELECT peer_items.property_id, COUNT(*)
		FROM user_interactions me
		JOIN user_interactions peers
			ON peers.property_id = me.property_id AND peers.user_id != me.user_id
		JOIN user_interactions peer_items
			ON peer_items.user_id = peers.user_id
			AND peer_items.property_id NOT IN (
				SELECT property_id FROM user_interactions WHERE user_id = ?
			)
		WHERE me.user_id = ?
		GROUP BY peer_items.property_id
	`

	rows, err := c.db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get co-interaction weights: %w", err)
	}
	defer rows.Close()

	weights := make(map[string]int)
	for rows.Next() {
		var propertyID string
		var weight int

		err := rows.Scan(&propertyID, &weight)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		weights[propertyID] = weight
	}

	return weights, rows.Err()
}

func (c *Client) InsertInteraction(ctx context.Context, interaction *models.Interaction) error {
	query := `INSERT INTO user_interactions (user_id, property_id, action, created_at) VALUES (?, ?, ?, ?)`

	_, err := c.db.ExecContext(ctx, query,
		interaction.UserID,
		interaction.PropertyID,
		interaction.Action,
		interaction.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert interaction: %w", err)
	}

	return nil
}
