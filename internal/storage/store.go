package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/GJBoth/Reservoir-computing-kernels/internal/dataset"
	"github.com/GJBoth/Reservoir-computing-kernels/internal/sweep"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type SweepMetadata struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Param     string    `json:"param"`
	Points    int       `json:"points"`
	Failed    int       `json:"failed"`
	BestIndex int       `json:"best_index"` // -1 when every configuration failed
	BestParam float64   `json:"best_param"`
	BestRMSE  float64   `json:"best_rmse"`
}

// SaveSweep writes one sweep run: metadata.json plus a results.csv with
// one row per grid point, failed configurations included.
func (s *Store) SaveSweep(source, param string, results []sweep.Result) (string, error) {
	runID := fmt.Sprintf("sweep_%s_%d", param, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := SweepMetadata{
		ID:        runID,
		Timestamp: time.Now(),
		Source:    source,
		Param:     param,
		Points:    len(results),
		Failed:    len(sweep.Failed(results)),
		BestIndex: -1,
	}
	if best, ok := sweep.Best(results); ok {
		meta.BestIndex = best
		meta.BestParam = results[best].Param
		meta.BestRMSE = results[best].RMSE
	}

	metaPath := filepath.Join(runDir, "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvPath := filepath.Join(runDir, "results.csv")
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write([]string{"param", "rmse", "valid_time", "error"}); err != nil {
		return "", err
	}
	for _, r := range results {
		errMsg := ""
		if r.Err != nil {
			errMsg = r.Err.Error()
		}
		row := []string{
			strconv.FormatFloat(r.Param, 'g', -1, 64),
			formatValue(r.RMSE),
			formatValue(r.ValidTime),
			errMsg,
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// SaveTrajectory writes a simulated trajectory as CSV, one state per row.
func (s *Store) SaveTrajectory(name string, traj *dataset.Trajectory, dt float64) (string, error) {
	runID := fmt.Sprintf("%s_%d", name, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	csvPath := filepath.Join(runDir, "states.csv")
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	header := []string{"time"}
	for i := 0; i < traj.Dim(); i++ {
		header = append(header, fmt.Sprintf("u%d", i))
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for i := 0; i < traj.Len(); i++ {
		row := []string{strconv.FormatFloat(float64(i)*dt, 'f', 6, 64)}
		for _, val := range traj.At(i) {
			row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func (s *Store) List() ([]SweepMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SweepMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]SweepMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}

		var meta SweepMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*SweepMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta SweepMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadResults reads a sweep's results.csv back into memory.
func (s *Store) LoadResults(runID string) ([]sweep.Result, error) {
	csvPath := filepath.Join(s.baseDir, runID, "results.csv")
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sweep.Result{}, nil
	}

	results := make([]sweep.Result, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < 4 {
			continue
		}
		param, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		res := sweep.Result{Param: param, RMSE: parseValue(record[1]), ValidTime: parseValue(record[2])}
		if record[3] != "" {
			res.Err = fmt.Errorf("%s", record[3])
		}
		results = append(results, res)
	}
	return results, nil
}

func parseValue(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
