package cache

const schema = `
CREATE TABLE IF NOT EXISTS packages (
    ref TEXT NOT NULL,
    name TEXT NOT NULL,
    version TEXT NOT NULL,
    package_id TEXT NOT NULL,
    settings TEXT NOT NULL,
    options TEXT NOT NULL,
    path TEXT NOT NULL,
    archive TEXT,
    digest TEXT,
    run_id TEXT NOT NULL,
    created_at TEXT NOT NULL,
    PRIMARY KEY (ref, package_id)
);

CREATE INDEX IF NOT EXISTS idx_packages_name ON packages(name);
`
