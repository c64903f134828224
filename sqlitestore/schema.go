package sqlitestore

// Schema creates the intake session table and the document table the
// retriever searches. Empty slots are NULL so the conditional updates can
// test them with IS NULL. search_text holds the folded title and content.
const Schema = `
CREATE TABLE IF NOT EXISTS intake_sessions (
	id          TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'collecting' CHECK (status IN ('collecting', 'completed')),
	sector      TEXT,
	province    TEXT,
	district    TEXT,
	osb_status  TEXT CHECK (osb_status IS NULL OR osb_status IN ('INSIDE', 'OUTSIDE')),
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_intake_sessions_session_id
	ON intake_sessions(session_id, created_at);

CREATE TABLE IF NOT EXISTS incentive_documents (
	id          TEXT PRIMARY KEY,
	corpus_id   TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	uri         TEXT NOT NULL DEFAULT '',
	content     TEXT NOT NULL,
	search_text TEXT NOT NULL,
	created_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_incentive_documents_corpus
	ON incentive_documents(corpus_id);
`
