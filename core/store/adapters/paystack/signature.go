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

package paystack

import (
	"storefront/core/store/domain"
	"storefront/modules/hmac"
)

// NewSignatureVerifier checks x-paystack-signature headers, which carry the
// hex HMAC-SHA512 of the raw body keyed with the account's secret key.
func NewSignatureVerifier(cfg Config) (domain.SignatureVerifier, error) {
	v, err := hmac.NewSHA512Verifier([]byte(cfg.SecretKey))
	if err != nil {
		return nil, err
	}
	return v, nil
}
