package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates every table the service needs.  Statements are
// idempotent so Migrate may run on every deploy.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS stadiums (
        id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        name       VARCHAR(254) NOT NULL,
        slug       VARCHAR(254) NOT NULL,
        created_at DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
        PRIMARY KEY (id),
        UNIQUE KEY uniq_stadium_name (name),
        UNIQUE KEY uniq_stadium_slug (slug)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS seats (
        id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        stadium_id BIGINT UNSIGNED NOT NULL,
        code       VARCHAR(8)      NOT NULL,
        PRIMARY KEY (id),
        UNIQUE KEY unique_seat_stadium_code (stadium_id, code),
        CONSTRAINT fk_seat_stadium FOREIGN KEY (stadium_id) REFERENCES stadiums (id) ON DELETE CASCADE
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS teams (
        id   BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        name VARCHAR(254)    NOT NULL,
        PRIMARY KEY (id),
        UNIQUE KEY uniq_team_name (name)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS matches (
        id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        stadium_id    BIGINT UNSIGNED NOT NULL,
        host_team_id  BIGINT UNSIGNED NOT NULL,
        guest_team_id BIGINT UNSIGNED NOT NULL,
        datetime      DATETIME(6)     NOT NULL,
        PRIMARY KEY (id),
        UNIQUE KEY unique_match_stadium_datetime (stadium_id, datetime),
        CONSTRAINT check_match_teams CHECK (host_team_id <> guest_team_id),
        CONSTRAINT fk_match_stadium FOREIGN KEY (stadium_id) REFERENCES stadiums (id) ON DELETE CASCADE,
        CONSTRAINT fk_match_host FOREIGN KEY (host_team_id) REFERENCES teams (id) ON DELETE CASCADE,
        CONSTRAINT fk_match_guest FOREIGN KEY (guest_team_id) REFERENCES teams (id) ON DELETE CASCADE
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS users (
        id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        email         VARCHAR(254)    NOT NULL,
        password_hash VARCHAR(255)    NOT NULL,
        is_staff      BOOLEAN         NOT NULL DEFAULT FALSE,
        is_active     BOOLEAN         NOT NULL DEFAULT TRUE,
        date_joined   DATETIME(6)     NOT NULL,
        PRIMARY KEY (id),
        UNIQUE KEY uniq_user_email (email)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS match_seat_infos (
        id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        match_id      BIGINT UNSIGNED NOT NULL,
        seat_id       BIGINT UNSIGNED NOT NULL,
        price         BIGINT UNSIGNED NOT NULL,
        buyer_id      BIGINT UNSIGNED NULL,
        is_reserved   BOOLEAN         NOT NULL DEFAULT FALSE,
        is_paid       BOOLEAN         NOT NULL DEFAULT FALSE,
        date_reserved DATETIME(6)     NULL,
        PRIMARY KEY (id),
        UNIQUE KEY unique_info_match_seat (match_id, seat_id),
        CONSTRAINT check_paid_reserved CHECK (is_paid = FALSE OR is_reserved = TRUE),
        CONSTRAINT check_reserved_date CHECK ((is_reserved = TRUE) = (date_reserved IS NOT NULL)),
        CONSTRAINT fk_info_match FOREIGN KEY (match_id) REFERENCES matches (id) ON DELETE CASCADE,
        CONSTRAINT fk_info_seat FOREIGN KEY (seat_id) REFERENCES seats (id) ON DELETE CASCADE,
        CONSTRAINT fk_info_buyer FOREIGN KEY (buyer_id) REFERENCES users (id) ON DELETE SET NULL
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
        id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        user_id    BIGINT UNSIGNED NOT NULL,
        token_hash CHAR(64)        NOT NULL,
        expires_at DATETIME(6)     NOT NULL,
        revoked_at DATETIME(6)     NULL,
        PRIMARY KEY (id),
        UNIQUE KEY uniq_refresh_token_hash (token_hash),
        CONSTRAINT fk_token_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate applies the schema.  Each statement runs on its own since the
// pool does not enable multiStatements.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i+1, err)
		}
	}
	return nil
}
