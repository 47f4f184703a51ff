// Package gpkg reads mesh code keyed rows from a GeoPackage table and writes assembled
// grids to a GeoPackage as one polygon feature per filled cell.
package gpkg

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/gpkg"
	"github.com/rs/zerolog"

	"github.com/pdok/meshraster/geomhelp"
	"github.com/pdok/meshraster/grid"
	"github.com/pdok/meshraster/mesh"
	"github.com/pdok/meshraster/processing"
)

var (
	ErrTableRequired    = errors.New("more than one table in GeoPackage, name one")
	ErrTableNotFound    = errors.New("table not found")
	ErrColumnOutOfRange = errors.New("column out of range")
	ErrUnexpectedType   = errors.New("unexpected type for sqlite column data")
	ErrTargetExists     = errors.New("target GeoPackage exists")
	ErrUnknownSRS       = errors.New("spatial reference system unknown to the GeoPackage")
)

const (
	DefaultTable    = "mesh"
	DefaultPageSize = 1000

	geometryColumn = "geom"
	meshCodeColumn = "meshcode"
	valueColumn    = "value"
)

type column struct {
	cid       int
	name      string
	ctype     string
	notnull   int
	dfltValue *string
	pk        int
}

// Source reads the mesh code and the value of each record of Table from two columns,
// counted from 0 in table definition order.
type Source struct {
	Path string
	// may be left empty when the GeoPackage has a single table
	Table       string
	MeshColumn  int
	ValueColumn int
}

func (source Source) ReadRows(ctx context.Context, rows chan<- grid.Row) error {
	// gpkg.Open would create a fresh GeoPackage
	if _, err := os.Stat(source.Path); err != nil {
		return err
	}
	handle, err := gpkg.Open(source.Path)
	if err != nil {
		return fmt.Errorf("error opening GeoPackage: %w", err)
	}
	defer handle.Close()

	table, err := source.table(handle)
	if err != nil {
		return err
	}
	columns, err := getTableColumns(handle, table)
	if err != nil {
		return err
	}
	if !inRange(source.MeshColumn, columns) || !inRange(source.ValueColumn, columns) {
		return fmt.Errorf("%w: table %s has %d columns, mesh code column %d, value column %d",
			ErrColumnOutOfRange, table, len(columns), source.MeshColumn, source.ValueColumn)
	}
	meshCol, valueCol := columns[source.MeshColumn].name, columns[source.ValueColumn].name

	query := fmt.Sprintf(`SELECT "%s", "%s" FROM "%s";`, meshCol, valueCol, table)
	result, err := handle.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("error querying %s: %w", table, err)
	}
	defer result.Close()

	for result.Next() {
		var code, value interface{}
		if err = result.Scan(&code, &value); err != nil {
			return fmt.Errorf("err reading row values: %w", err)
		}
		row := grid.Row{}
		if row.Code, err = meshCode(code); err != nil {
			return fmt.Errorf("column %s: %w", meshCol, err)
		}
		if row.Value, err = number(value); err != nil {
			return fmt.Errorf("column %s: %w", valueCol, err)
		}
		select {
		case rows <- row:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return result.Err()
}

func (source Source) table(h *gpkg.Handle) (string, error) {
	if source.Table != "" {
		return source.Table, nil
	}
	result, err := h.Query(`SELECT table_name FROM gpkg_contents ORDER BY table_name;`)
	if err != nil {
		return "", err
	}
	defer result.Close()
	var tables []string
	for result.Next() {
		var name string
		if err = result.Scan(&name); err != nil {
			return "", err
		}
		tables = append(tables, name)
	}
	if err = result.Err(); err != nil {
		return "", err
	}
	if len(tables) != 1 {
		return "", fmt.Errorf("%w: found %d tables %v", ErrTableRequired, len(tables), tables)
	}
	return tables[0], nil
}

// meshCode accepts codes stored as text as well as integers.
func meshCode(v interface{}) (string, error) {
	switch v := v.(type) {
	case string:
		return strings.TrimSpace(v), nil
	case []uint8:
		return strings.TrimSpace(string(v)), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatFloat(v, 'f', 0, 64), nil
		}
	}
	return "", fmt.Errorf("%w: %T", ErrUnexpectedType, v)
}

// number reads NULL as NaN.
func number(v interface{}) (float64, error) {
	switch v := v.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case nil:
		return math.NaN(), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	case []uint8:
		return strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
	}
	return 0, fmt.Errorf("%w: %T", ErrUnexpectedType, v)
}

// Target writes every filled cell of a grid as a polygon with its mesh code and value.
type Target struct {
	Path string
	// defaults to DefaultTable
	Table string
	EPSG  int
	// features per transaction, defaults to DefaultPageSize
	PageSize  int
	Overwrite bool
	Logger    zerolog.Logger
}

type cell struct {
	code    string
	value   float64
	polygon geom.Polygon
}

// WriteRaster builds the GeoPackage next to Path and moves it into place once complete,
// so Path holds either the whole grid or whatever it held before.
func (target Target) WriteRaster(m *grid.Matrix, _ processing.Georeference) error {
	if err := target.checkExists(); err != nil {
		return err
	}
	dir, err := os.MkdirTemp(filepath.Dir(target.Path), "."+filepath.Base(target.Path)+".*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	pending := filepath.Join(dir, filepath.Base(target.Path))
	written, err := target.write(pending, m)
	if err != nil {
		return err
	}
	// the target may have appeared while writing
	if err = target.checkExists(); err != nil {
		return err
	}
	if err = os.Rename(pending, target.Path); err != nil {
		return err
	}
	target.Logger.Info().Str("path", target.Path).Str("table", target.tableName()).Int("features", written).Msg("wrote cells to GeoPackage")
	return nil
}

// write stores the filled cells of m in a new GeoPackage at path and returns how many.
func (target Target) write(path string, m *grid.Matrix) (int, error) {
	handle, err := gpkg.Open(path)
	if err != nil {
		return 0, fmt.Errorf("error opening GeoPackage: %w", err)
	}
	defer handle.Close()

	srs, err := ensureSRS(handle, target.EPSG)
	if err != nil {
		return 0, err
	}
	table := target.tableName()
	if err = buildTable(handle, table, srs); err != nil {
		return 0, err
	}

	pageSize := target.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	var ext *geom.Extent
	page := make([]cell, 0, pageSize)
	written := 0
	for r := range m.Values {
		for c, value := range m.Values[r] {
			if !m.IsFilled(c, r) {
				continue
			}
			code, err := m.Level.Encode(m.XIndexes[c], m.YIndexes[r])
			if err != nil {
				return written, err
			}
			bounds, err := mesh.Bounds(code)
			if err != nil {
				return written, err
			}
			if ext == nil {
				ext = geom.NewExtent([2]float64{bounds.MinX(), bounds.MinY()}, [2]float64{bounds.MaxX(), bounds.MaxY()})
			} else {
				ext.Add(&bounds)
			}
			page = append(page, cell{code: code, value: value, polygon: geomhelp.ExtentPolygon(bounds)})
			if len(page) == pageSize {
				if err = writeCells(handle, table, srs, page); err != nil {
					return written, err
				}
				written += len(page)
				page = page[:0]
			}
		}
	}
	if err = writeCells(handle, table, srs, page); err != nil {
		return written, err
	}
	written += len(page)

	if ext != nil {
		target.Logger.Debug().Str("extent", geomhelp.WktMustEncode(geomhelp.ExtentPolygon(*ext), 120)).Msg("cell extent")
		if err = handle.UpdateGeometryExtent(table, ext); err != nil {
			return written, fmt.Errorf("failed to update extent: %w", err)
		}
	}
	return written, nil
}

func (target Target) tableName() string {
	if target.Table == "" {
		return DefaultTable
	}
	return target.Table
}

// checkExists fails when Path exists and may not be replaced.
func (target Target) checkExists() error {
	_, err := os.Stat(target.Path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return err
	case !target.Overwrite:
		return fmt.Errorf("%w: %s", ErrTargetExists, target.Path)
	}
	return nil
}

func writeCells(h *gpkg.Handle, table string, srs gpkg.SpatialReferenceSystem, cells []cell) error {
	if len(cells) == 0 {
		return nil
	}
	tx, err := h.Begin()
	if err != nil {
		return fmt.Errorf("could not start a transaction: %w", err)
	}
	stmt, err := tx.Prepare(insertSQL(table))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("could not prepare a statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range cells {
		sb, err := gpkg.NewBinary(int32(srs.ID), c.polygon)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("could not create a binary geometry: %w", err)
		}
		if _, err = stmt.Exec(sb, c.code, c.value); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("could not insert mesh code %s: %w", c.code, err)
		}
	}
	return tx.Commit()
}

func inRange(col int, columns []column) bool {
	return col >= 0 && col < len(columns)
}

// createSQL creates the table holding one polygon per cell
func createSQL(table string) string {
	columns := []column{
		{name: "fid", ctype: "INTEGER", pk: 1},
		{name: geometryColumn, ctype: "POLYGON"},
		{name: meshCodeColumn, ctype: "TEXT", notnull: 1},
		{name: valueColumn, ctype: "REAL"},
	}
	var columnparts []string
	for _, column := range columns {
		columnpart := `"` + column.name + `" ` + column.ctype
		if column.notnull == 1 {
			columnpart += ` NOT NULL`
		}
		if column.pk == 1 {
			columnpart += ` PRIMARY KEY AUTOINCREMENT`
		}
		columnparts = append(columnparts, columnpart)
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%v"(%s);`, table, strings.Join(columnparts, `, `))
}

func insertSQL(table string) string {
	return fmt.Sprintf(`INSERT INTO "%v"("%s","%s","%s") VALUES(?,?,?)`, table, geometryColumn, meshCodeColumn, valueColumn)
}

// getTableColumns collects the column information of a given table
func getTableColumns(h *gpkg.Handle, table string) ([]column, error) {
	rows, err := h.Query(fmt.Sprintf(`PRAGMA table_info('%v');`, table))
	if err != nil {
		return nil, fmt.Errorf("error reading columns of %s: %w", table, err)
	}
	defer rows.Close()

	var columns []column
	for rows.Next() {
		var column column
		err = rows.Scan(&column.cid, &column.name, &column.ctype, &column.notnull, &column.dfltValue, &column.pk)
		if err != nil {
			return nil, fmt.Errorf("error getting the column information: %w", err)
		}
		columns = append(columns, column)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	return columns, nil
}

// buildTable creates the destination table with the necessary gpkg_ information
func buildTable(h *gpkg.Handle, table string, srs gpkg.SpatialReferenceSystem) error {
	if _, err := h.Exec(createSQL(table)); err != nil {
		return fmt.Errorf("error building table in target GeoPackage: %w", err)
	}
	err := h.AddGeometryTable(gpkg.TableDescription{
		Name:          table,
		ShortName:     table,
		Description:   "Japan Standard Area Mesh cells",
		GeometryField: geometryColumn,
		GeometryType:  gpkg.Polygon,
		SRS:           int32(srs.ID),
		Z:             gpkg.Prohibited,
		M:             gpkg.Prohibited,
	})
	if err != nil {
		return fmt.Errorf("error adding geometry table in target GeoPackage: %w", err)
	}
	return nil
}

// ensureSRS registers a known geographic reference system, or looks up one the GeoPackage
// already carries.
func ensureSRS(h *gpkg.Handle, epsg int) (gpkg.SpatialReferenceSystem, error) {
	if srs, ok := knownSRS[epsg]; ok {
		return srs, h.UpdateSRS(srs)
	}
	srs, err := getSpatialReferenceSystem(h, epsg)
	if err != nil {
		return srs, fmt.Errorf("%w: EPSG:%d", ErrUnknownSRS, epsg)
	}
	return srs, nil
}

// getSpatialReferenceSystem extracts this based on the given SRS id
func getSpatialReferenceSystem(h *gpkg.Handle, id int) (gpkg.SpatialReferenceSystem, error) {
	var srs gpkg.SpatialReferenceSystem
	query := `SELECT srs_name, srs_id, organization, organization_coordsys_id, definition, description FROM gpkg_spatial_ref_sys WHERE srs_id = ?;`

	var description *string
	err := h.QueryRow(query, id).Scan(&srs.Name, &srs.ID, &srs.Organization, &srs.OrganizationCoordsysID, &srs.Definition, &description)
	if description != nil {
		srs.Description = *description
	}
	return srs, err
}

var knownSRS = map[int]gpkg.SpatialReferenceSystem{
	6668: {
		Name:                   "JGD2011",
		ID:                     6668,
		Organization:           "EPSG",
		OrganizationCoordsysID: 6668,
		Definition:             `GEOGCS["JGD2011",DATUM["Japanese_Geodetic_Datum_2011",SPHEROID["GRS 1980",6378137,298.257222101]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433],AUTHORITY["EPSG","6668"]]`,
		Description:            "Japanese Geodetic Datum 2011",
	},
	4612: {
		Name:                   "JGD2000",
		ID:                     4612,
		Organization:           "EPSG",
		OrganizationCoordsysID: 4612,
		Definition:             `GEOGCS["JGD2000",DATUM["Japanese_Geodetic_Datum_2000",SPHEROID["GRS 1980",6378137,298.257222101]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433],AUTHORITY["EPSG","4612"]]`,
		Description:            "Japanese Geodetic Datum 2000",
	},
	4301: {
		Name:                   "Tokyo",
		ID:                     4301,
		Organization:           "EPSG",
		OrganizationCoordsysID: 4301,
		Definition:             `GEOGCS["Tokyo",DATUM["Tokyo",SPHEROID["Bessel 1841",6377397.155,299.1528128]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433],AUTHORITY["EPSG","4301"]]`,
		Description:            "Tokyo datum",
	},
}
