//  Copyright 2016-Present StrandDB, Inc.
//
//  Use of this software is governed by the Business Source License included
//  in the file licenses/BSL-StrandDB.txt.  As of the Change Date specified
//  in that file, in accordance with the Business Source License, use of this
//  software will be governed by the Apache License, Version 2.0, included in
//  the file licenses/APL2.txt.

package execution

import (
	"fmt"

	"github.com/stranddb/query/errors"
)

// protocol caps on key material staged by callers
const (
	MAX_KEY_LENGTH       = 65535
	MAX_COMPONENT_LENGTH = 65535
)

// ValidateKey rejects row keys the wire protocol cannot represent, before
// any execution side effect.
func ValidateKey(key []byte) errors.Error {
	if len(key) == 0 {
		return errors.NewInvalidKeyError("empty key")
	}
	if len(key) > MAX_KEY_LENGTH {
		return errors.NewInvalidKeyError(fmt.Sprintf("key length %d exceeds maximum %d", len(key), MAX_KEY_LENGTH))
	}
	return nil
}

// ValidateKeyComponents applies the per component cap on composite keys.
func ValidateKeyComponents(components ...[]byte) errors.Error {
	for i, c := range components {
		if len(c) > MAX_COMPONENT_LENGTH {
			return errors.NewInvalidKeyError(
				fmt.Sprintf("component %d length %d exceeds maximum %d", i, len(c), MAX_COMPONENT_LENGTH))
		}
	}
	return nil
}
