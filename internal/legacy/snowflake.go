package legacy

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DeriveID turns a legacy GUID into the integer primary key used by the
// relational schema: every hyphen separated segment is read as hex and the
// segments are summed. Distinct GUIDs may collide; rows migrated earlier were
// keyed this way, so the derivation must not change.
func DeriveID(guid string) (int64, error) {
	var sum int64
	for _, segment := range strings.Split(guid, "-") {
		v, err := strconv.ParseUint(segment, 16, 63)
		if err != nil {
			return 0, fmt.Errorf("%w: segment %q of %q is not hexadecimal", ErrMalformedID, segment, guid)
		}
		if int64(v) > math.MaxInt64-sum {
			return 0, fmt.Errorf("%w: %q overflows a 64-bit id", ErrMalformedID, guid)
		}
		sum += int64(v)
	}
	return sum, nil
}
