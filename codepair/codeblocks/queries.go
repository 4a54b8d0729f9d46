package codeblocks

// postgres
const (
	pgCreateTable = `
		CREATE TABLE IF NOT EXISTS code_blocks (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			initial_code TEXT NOT NULL DEFAULT '',
			solution TEXT NOT NULL DEFAULT '',
			total_rating INTEGER NOT NULL DEFAULT 0,
			num_ratings INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`

	pgInsertSeed = `
		INSERT INTO code_blocks (id, name, initial_code, solution)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`

	pgList = `
		SELECT id, name, initial_code, solution, total_rating, num_ratings
		FROM code_blocks
		ORDER BY created_at, name
	`

	pgGet = `
		SELECT id, name, initial_code, solution, total_rating, num_ratings
		FROM code_blocks
		WHERE id = $1
	`

	pgAddRating = `
		UPDATE code_blocks
		SET total_rating = total_rating + $2, num_ratings = num_ratings + 1
		WHERE id = $1
		RETURNING total_rating, num_ratings
	`
)

// sqlite
const (
	sqliteCreateTable = `
		CREATE TABLE IF NOT EXISTS code_blocks (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			initial_code TEXT NOT NULL DEFAULT '',
			solution TEXT NOT NULL DEFAULT '',
			total_rating INTEGER NOT NULL DEFAULT 0,
			num_ratings INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`

	sqliteInsertSeed = `
		INSERT OR IGNORE INTO code_blocks (id, name, initial_code, solution)
		VALUES (?, ?, ?, ?)
	`

	sqliteList = `
		SELECT id, name, initial_code, solution, total_rating, num_ratings
		FROM code_blocks
		ORDER BY created_at, name
	`

	sqliteGet = `
		SELECT id, name, initial_code, solution, total_rating, num_ratings
		FROM code_blocks
		WHERE id = ?
	`

	sqliteAddRating = `
		UPDATE code_blocks
		SET total_rating = total_rating + ?, num_ratings = num_ratings + 1
		WHERE id = ?
		RETURNING total_rating, num_ratings
	`
)
