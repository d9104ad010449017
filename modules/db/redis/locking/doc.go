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

// Package locking serializes a job across nodes with a rueidislock lock, so a
// scheduled payout and a staff-triggered one never overlap.
//
//	locker, err := locking.NewRedisLocker(redisCfg, "storefront:locks:")
//	if err != nil {
//		return err
//	}
//	defer locker.Close()
//
//	exec := locking.NewLockingTaskExecutor(locker, locking.WithLogger(slog.Default()))
//	err = exec.Execute(ctx, locking.LockConfiguration{
//		Name:           "payouts",
//		LockAtMostFor:  2 * time.Minute,
//		LockAtLeastFor: 10 * time.Second,
//	}, runPayout)
//	if errors.Is(err, locking.ErrLockNotAcquired) {
//		// another node is running it
//	}
package locking
