package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
)

var (
	logInit sync.Once
	logOut  *log.Logger
)

// Logger returns the process-wide line logger. Every Sismakel component
// writes through it so stdout stays one JSON object per line.
func Logger() *log.Logger {
	logInit.Do(func() {
		logOut = log.New(os.Stdout, "", 0)
	})
	return logOut
}

// LogRequest serializes entry as a single JSON line. An entry that cannot
// be marshalled is reported as an error line instead of being dropped.
func LogRequest(entry map[string]any) {
	line, err := json.Marshal(entry)
	if err != nil {
		Logger().Printf(`{"level":"error","msg":"log entry not serializable","error":%q}`, err.Error())
		return
	}
	Logger().Println(string(line))
}
