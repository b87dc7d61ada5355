/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package utils

import (
	"errors"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLogLevel("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, ParseLogLevel(" warning "))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel(""))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel("verbose"))
}

func TestNewLoggerRegistry(t *testing.T) {
	a := NewLogger("REGISTRY")
	b := NewLogger("REGISTRY")
	assert.Same(t, a, b)

	assert.True(t, SetLoggerLevel("REGISTRY", "error"))
	assert.Equal(t, logrus.ErrorLevel, a.GetLevel())
	assert.False(t, SetLoggerLevel("MISSING", "error"))
}

func TestLog4jColorFormatterAppendsFields(t *testing.T) {
	f := &Log4jColorFormatter{LoggerName: "TEST", NameWidth: 6, PathFmt: PathFormatNone}
	entry := &logrus.Entry{
		Time:    time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:   logrus.InfoLevel,
		Message: "commit finished",
		Data:    logrus.Fields{"rows": 3, "added": 1},
	}
	out, err := f.Format(entry)
	require.NoError(t, err)
	line := string(out)
	assert.True(t, strings.HasPrefix(line, "2025-01-02 03:04:05.000"))
	assert.Contains(t, line, "commit finished added=1 rows=3")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestJSONLogFormatter(t *testing.T) {
	f := &JSONLogFormatter{LoggerName: "TEST", PathFmt: PathFormatNone}
	entry := &logrus.Entry{
		Time:    time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "slow query",
		Data:    logrus.Fields{"error": errors.New("boom")},
	}
	out, err := f.Format(entry)
	require.NoError(t, err)

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &rec))
	assert.Equal(t, "warning", rec["level"])
	assert.Equal(t, "TEST", rec["logger"])
	assert.Equal(t, "slow query", rec["message"])
	fields, ok := rec["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "boom", fields["error"])
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("UTILS_TEST_BOOL", "true")
	t.Setenv("UTILS_TEST_INT", "42")
	t.Setenv("UTILS_TEST_BAD_INT", "x")
	assert.True(t, EnvDefaultBool("UTILS_TEST_BOOL", false))
	assert.Equal(t, 42, EnvDefaultInt("UTILS_TEST_INT", 0))
	assert.Equal(t, 7, EnvDefaultInt("UTILS_TEST_BAD_INT", 7))
	assert.Equal(t, "def", EnvDefaultString("UTILS_TEST_UNSET", "def"))
}

func TestEnvDefaultsConversions(t *testing.T) {
	t.Setenv("UTILS_TEST_BOOL_NUM", "1")
	t.Setenv("UTILS_TEST_BAD_BOOL", "maybe")
	t.Setenv("UTILS_TEST_HEX", "0x10")
	t.Setenv("UTILS_TEST_FLOATISH", "8.0")
	assert.True(t, EnvDefaultBool("UTILS_TEST_BOOL_NUM", false))
	assert.True(t, EnvDefaultBool("UTILS_TEST_BAD_BOOL", true))
	assert.False(t, EnvDefaultBool("UTILS_TEST_UNSET", false))
	assert.Equal(t, 16, EnvDefaultInt("UTILS_TEST_HEX", 0))
	assert.Equal(t, 8, EnvDefaultInt("UTILS_TEST_FLOATISH", 0))
}
