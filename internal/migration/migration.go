// Package migration holds the sqlite schema as data so both the store
// and tests can create a fresh database.
package migration

const Create = `
CREATE TABLE Track (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  artist TEXT NOT NULL,
  UNIQUE (name, artist)
);

CREATE TABLE Listen (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  track INTEGER NOT NULL,
  date INTEGER NOT NULL,
  ms_played INTEGER NOT NULL DEFAULT 0,
  skipped INTEGER NOT NULL DEFAULT 0,
  FOREIGN KEY (track) REFERENCES Track(id)
);

CREATE INDEX idx_listen_date ON Listen(date);

CREATE TABLE Report (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  run_day INTEGER NOT NULL,
  sent DATETIME,
  types TEXT NOT NULL,
  params TEXT
);

CREATE TABLE Meta (
  key TEXT PRIMARY KEY,
  value TEXT
);
`
