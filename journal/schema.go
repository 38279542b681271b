package journal

const Schema = `
CREATE TABLE IF NOT EXISTS analyses (
	id TEXT PRIMARY KEY,
	uid TEXT NOT NULL DEFAULT '',
	pair TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	recommendation TEXT NOT NULL,
	confidence INTEGER NOT NULL,
	entry_price REAL NOT NULL,
	target_price REAL NOT NULL,
	stop_loss REAL NOT NULL,
	status TEXT NOT NULL,
	outcome TEXT NOT NULL,
	profit TEXT NOT NULL,
	risk_reward REAL NOT NULL,
	patterns TEXT NOT NULL,
	image TEXT NOT NULL,
	depth TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at);
CREATE INDEX IF NOT EXISTS idx_analyses_uid ON analyses(uid);
`
