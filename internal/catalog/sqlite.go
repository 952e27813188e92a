package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/trip"
)

// SQLite reads the catalog from a SQLite database. The schema is created by
// OpenSQLite; the serving path only reads.
type SQLite struct {
	db     *sql.DB
	logger zerolog.Logger
}

func OpenSQLite(ctx context.Context, dsn string, logger zerolog.Logger) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	if strings.Contains(dsn, ":memory:") {
		// Every connection to :memory: is a different database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	}

	for _, pragma := range []string{"PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("catalog db %s: %w", pragma, err)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping catalog db: %w", err)
	}

	n, err := migrate(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Info().Int("applied_migrations", n).Msg("catalog_db_ready")
	return &SQLite{db: db, logger: logger}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) City(ctx context.Context, name string) (City, error) {
	city := normalize(name)
	c := City{Transport: trip.TransportMatrix{}}

	err := s.query(ctx, `SELECT id, name, cost, type, rating, duration FROM attractions WHERE city = ? ORDER BY id`, []any{city}, func(rows *sql.Rows) error {
		var a trip.Attraction
		if err := rows.Scan(&a.ID, &a.Name, &a.Cost, &a.Type, &a.Rating, &a.Duration); err != nil {
			return err
		}
		c.Attractions = append(c.Attractions, a)
		return nil
	})
	if err != nil {
		return City{}, fmt.Errorf("attractions of %s: %w", name, err)
	}

	err = s.query(ctx, `SELECT id, name, cost, type, rating, features FROM accommodations WHERE city = ? ORDER BY id`, []any{city}, func(rows *sql.Rows) error {
		var h trip.Accommodation
		var features string
		if err := rows.Scan(&h.ID, &h.Name, &h.Cost, &h.Type, &h.Rating, &features); err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(features), &h.Feature); err != nil {
			return fmt.Errorf("accommodation %s features: %w", h.ID, err)
		}
		c.Accommodations = append(c.Accommodations, h)
		return nil
	})
	if err != nil {
		return City{}, fmt.Errorf("accommodations of %s: %w", name, err)
	}

	err = s.query(ctx, `SELECT id, name, cost, type, rating, recommended_food, queue_time, duration FROM restaurants WHERE city = ? ORDER BY id`, []any{city}, func(rows *sql.Rows) error {
		var r trip.Restaurant
		var food string
		if err := rows.Scan(&r.ID, &r.Name, &r.Cost, &r.Type, &r.Rating, &food, &r.QueueTime, &r.Duration); err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(food), &r.RecommendedFood); err != nil {
			return fmt.Errorf("restaurant %s recommended_food: %w", r.ID, err)
		}
		c.Restaurants = append(c.Restaurants, r)
		return nil
	})
	if err != nil {
		return City{}, fmt.Errorf("restaurants of %s: %w", name, err)
	}

	err = s.query(ctx, `SELECT from_id, to_id, taxi_duration, taxi_cost, bus_duration, bus_cost FROM transport WHERE city = ?`, []any{city}, func(rows *sql.Rows) error {
		var from, to string
		var e trip.TransportEdge
		if err := rows.Scan(&from, &to, &e.TaxiDuration, &e.TaxiCost, &e.BusDuration, &e.BusCost); err != nil {
			return err
		}
		c.Transport.Set(from, to, e)
		return nil
	})
	if err != nil {
		return City{}, fmt.Errorf("transport of %s: %w", name, err)
	}

	if len(c.Attractions)+len(c.Accommodations)+len(c.Restaurants) == 0 {
		return City{}, fmt.Errorf("%w: %q", ErrUnknownCity, name)
	}
	return c, nil
}

func (s *SQLite) Trains(ctx context.Context, origin, destination string) ([]trip.TrainOption, error) {
	var out []trip.TrainOption
	err := s.query(ctx, `SELECT train_number, cost, duration, origin_id, origin_station, destination_id, destination_station
		FROM trains WHERE origin_city = ? AND destination_city = ? ORDER BY cost, train_number`,
		[]any{normalize(origin), normalize(destination)}, func(rows *sql.Rows) error {
			var t trip.TrainOption
			if err := rows.Scan(&t.ID, &t.Cost, &t.Duration, &t.OriginID, &t.OriginStation, &t.DestinationID, &t.DestinationStation); err != nil {
				return err
			}
			out = append(out, t)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("trains %s -> %s: %w", origin, destination, err)
	}
	return out, nil
}

func (s *SQLite) query(ctx context.Context, q string, args []any, scan func(*sql.Rows) error) error {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Import writes b into the database in one transaction, replacing rows with
// the same keys.
func (s *SQLite) Import(ctx context.Context, b Bundle) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	exec := func(q string, args ...any) error {
		_, err := tx.ExecContext(ctx, q, args...)
		return err
	}
	asJSON := func(v []string) string {
		if v == nil {
			v = []string{}
		}
		raw, _ := json.Marshal(v)
		return string(raw)
	}

	for name, c := range b.Cities {
		city := normalize(name)
		for _, a := range c.Attractions {
			if err := exec(`INSERT OR REPLACE INTO attractions (id, city, name, cost, type, rating, duration) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				a.ID, city, a.Name, a.Cost, a.Type, a.Rating, a.Duration); err != nil {
				return fmt.Errorf("import attraction %s: %w", a.ID, err)
			}
		}
		for _, h := range c.Accommodations {
			if err := exec(`INSERT OR REPLACE INTO accommodations (id, city, name, cost, type, rating, features) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				h.ID, city, h.Name, h.Cost, h.Type, h.Rating, asJSON(h.Feature)); err != nil {
				return fmt.Errorf("import accommodation %s: %w", h.ID, err)
			}
		}
		for _, r := range c.Restaurants {
			if err := exec(`INSERT OR REPLACE INTO restaurants (id, city, name, cost, type, rating, recommended_food, queue_time, duration) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				r.ID, city, r.Name, r.Cost, r.Type, r.Rating, asJSON(r.RecommendedFood), r.QueueTime, r.Duration); err != nil {
				return fmt.Errorf("import restaurant %s: %w", r.ID, err)
			}
		}
		for key, e := range c.Transport {
			from, to, ok := trip.SplitKey(key)
			if !ok {
				return fmt.Errorf("import transport: bad pair %q", key)
			}
			if err := exec(`INSERT OR REPLACE INTO transport (city, from_id, to_id, taxi_duration, taxi_cost, bus_duration, bus_cost) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				city, from, to, e.TaxiDuration, e.TaxiCost, e.BusDuration, e.BusCost); err != nil {
				return fmt.Errorf("import transport %s: %w", key, err)
			}
		}
	}
	for _, r := range b.Trains {
		for _, t := range r.Options {
			if err := exec(`INSERT OR REPLACE INTO trains (train_number, origin_city, destination_city, cost, duration, origin_id, origin_station, destination_id, destination_station) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				t.ID, normalize(r.Origin), normalize(r.Destination), t.Cost, t.Duration, t.OriginID, t.OriginStation, t.DestinationID, t.DestinationStation); err != nil {
				return fmt.Errorf("import train %s: %w", t.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	s.logger.Info().Int("cities", len(b.Cities)).Int("routes", len(b.Trains)).Msg("catalog_imported")
	return nil
}
