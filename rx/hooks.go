// Copyright 2025 samber.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://github.com/samber/ro/blob/main/licenses/LICENSE.apache.md
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rx

import (
	"context"
	"fmt"
)

// OnUnhandledError is called whenever a subscriber callback panics and no
// error handler is registered to receive it. Rebind it to plug in whatever
// logging the host application uses; the default drops the error silently,
// mirroring samber/ro's own default.
var OnUnhandledError = func(ctx context.Context, err error) {}

// OnDroppedNotification is called whenever a notification is emitted after
// an Observer has already closed (errored or completed). Rebind it to plug
// in logging; the default drops the notification silently.
var OnDroppedNotification = func(ctx context.Context, notification fmt.Stringer) {}
