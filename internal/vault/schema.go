// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package vault

// Schema creates the persistent tables. "trees" and "unseen_counts" are
// derived data: they are rebuilt at open time and afterwards maintained
// only by the triggers below.
const Schema = `
CREATE TABLE IF NOT EXISTS rooms (
    name TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS msgs (
    room    TEXT    NOT NULL REFERENCES rooms(name) ON DELETE CASCADE,
    id      INTEGER NOT NULL,
    parent  INTEGER,
    time    INTEGER NOT NULL,
    nick    TEXT    NOT NULL,
    content TEXT    NOT NULL,
    seen    INTEGER NOT NULL DEFAULT 0,

    PRIMARY KEY (room, id)
);

CREATE INDEX IF NOT EXISTS idx_msgs_parent ON msgs(room, parent);
CREATE INDEX IF NOT EXISTS idx_msgs_seen   ON msgs(room, seen, id);

CREATE TABLE IF NOT EXISTS trees (
    room TEXT    NOT NULL,
    id   INTEGER NOT NULL,

    PRIMARY KEY (room, id)
);

CREATE TABLE IF NOT EXISTS unseen_counts (
    room   TEXT PRIMARY KEY,
    amount INTEGER NOT NULL
);
`

// RebuildAggregates recomputes both derived tables from the message data.
// Run once at open time; the triggers keep them correct afterwards.
const RebuildAggregates = `
DELETE FROM trees;

INSERT INTO trees (room, id)
SELECT room, id
FROM msgs
WHERE parent IS NULL
UNION
SELECT room, parent
FROM msgs
WHERE parent IS NOT NULL
AND NOT EXISTS(
    SELECT 1
    FROM msgs AS parents
    WHERE parents.room = msgs.room
    AND parents.id = msgs.parent
);

DELETE FROM unseen_counts;

INSERT INTO unseen_counts (room, amount)
SELECT name, 0
FROM rooms;

INSERT OR REPLACE INTO unseen_counts (room, amount)
SELECT room, COUNT(*)
FROM msgs
WHERE NOT seen
GROUP BY room;
`

// Triggers maintain the root set and the unseen counters incrementally.
//
// Root set rules:
//   - a message without a parent is a root;
//   - a message whose parent is not locally known makes the parent id a
//     placeholder root, and is itself not a root;
//   - a message arriving for an id that was a placeholder root retracts
//     the placeholder and re-qualifies under the rules above.
//
// The final root set is the same for every insertion order.
const Triggers = `
CREATE TRIGGER IF NOT EXISTS trees_delete_room
AFTER DELETE ON rooms
BEGIN
    DELETE FROM trees WHERE room = old.name;
END;

CREATE TRIGGER IF NOT EXISTS trees_insert_msg_without_parent
AFTER INSERT ON msgs
WHEN new.parent IS NULL
BEGIN
    INSERT OR IGNORE INTO trees (room, id)
    VALUES (new.room, new.id);
END;

CREATE TRIGGER IF NOT EXISTS trees_insert_msg_with_parent
AFTER INSERT ON msgs
WHEN new.parent IS NOT NULL
BEGIN
    DELETE FROM trees
    WHERE room = new.room
    AND id = new.id;

    INSERT OR IGNORE INTO trees (room, id)
    SELECT new.room, new.parent
    WHERE NOT EXISTS(
        SELECT 1
        FROM msgs
        WHERE room = new.room
        AND id = new.parent
        AND parent IS NOT NULL
    );
END;

CREATE TRIGGER IF NOT EXISTS unseen_insert_room
AFTER INSERT ON rooms
BEGIN
    INSERT OR REPLACE INTO unseen_counts (room, amount)
    VALUES (new.name, 0);
END;

CREATE TRIGGER IF NOT EXISTS unseen_delete_room
AFTER DELETE ON rooms
BEGIN
    DELETE FROM unseen_counts WHERE room = old.name;
END;

CREATE TRIGGER IF NOT EXISTS unseen_insert_msg
AFTER INSERT ON msgs
WHEN NOT new.seen
BEGIN
    UPDATE unseen_counts
    SET amount = amount + 1
    WHERE room = new.room;
END;

CREATE TRIGGER IF NOT EXISTS unseen_update_msg
AFTER UPDATE OF seen ON msgs
WHEN old.seen != new.seen
BEGIN
    UPDATE unseen_counts
    SET amount = CASE WHEN new.seen THEN amount - 1 ELSE amount + 1 END
    WHERE room = new.room;
END;
`
