package detectqueue

import "time"

// MaxTurnStaleness is the wall-clock age beyond which a pending job is
// dropped instead of processed.
const MaxTurnStaleness = 5 * time.Second
