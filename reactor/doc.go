// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the level-triggered readiness reactor used by the event loop, backed by epoll with an eventfd wake on Linux.
package reactor
