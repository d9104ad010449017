// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package locking

import (
	"fmt"
	"time"

	"github.com/redis/rueidis/rueidislock"

	"storefront/modules/db/redis"
)

// NewRedisLocker builds a rueidislock.Locker sharing the connection settings of
// the main Redis client. A single-instance deployment only needs one key majority.
func NewRedisLocker(cfg redis.RedisConfig, keyPrefix string) (rueidislock.Locker, error) {
	clientOpt, err := redis.ClientOption(cfg)
	if err != nil {
		return nil, err
	}
	// rueidislock relies on default client tracking for lock release notifications.
	clientOpt.DisableCache = false
	clientOpt.ClientTrackingOptions = nil

	locker, err := rueidislock.NewLocker(rueidislock.LockerOption{
		ClientOption:   clientOpt,
		KeyPrefix:      keyPrefix,
		KeyValidity:    5 * time.Second,
		KeyMajority:    1,
		NoLoopTracking: true,
	})
	if err != nil {
		return nil, fmt.Errorf("locking: create locker: %w", err)
	}
	return locker, nil
}
