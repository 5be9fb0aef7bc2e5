// Copyright 2025 The File-Group Reader Authors
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

// Package log is a thin structured-logging shim over zap, in the same
// spirit as the teacher's own log/v3 wrapper: a small, swappable surface so
// the rest of the module never imports zap directly.
package log

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var global atomic.Pointer[zap.SugaredLogger]

func init() {
	l, _ := zap.NewProduction()
	global.Store(l.Sugar())
}

// SetLogger replaces the process-wide logger (e.g. to install a test
// observer or a development config with human-readable output).
func SetLogger(l *zap.SugaredLogger) { global.Store(l) }

func Debug(msg string, kv ...any) { global.Load().Debugw(msg, kv...) }
func Info(msg string, kv ...any)  { global.Load().Infow(msg, kv...) }
func Warn(msg string, kv ...any)  { global.Load().Warnw(msg, kv...) }
func Error(msg string, kv ...any) { global.Load().Errorw(msg, kv...) }
