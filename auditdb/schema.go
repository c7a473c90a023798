// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package auditdb

const eventTableSchema = `
create table if not exists event (
	seq integer primary key autoincrement,
	session text,
	kind text,
	pool blob(20),
	claim blob(32),
	account blob(20),
	amount integer,
	round integer,
	detail text,
	time integer
);

CREATE INDEX if not exists poolIndex on event(pool);
CREATE INDEX if not exists claimIndex on event(claim);
CREATE INDEX if not exists accountIndex on event(account);
CREATE INDEX if not exists timeIndex on event(time);
`
