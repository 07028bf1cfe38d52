package main

import (
	"database/sql"

	"github.com/codegangsta/martini"
	"github.com/coopernurse/gorp"
	"github.com/martini-contrib/render"
	"github.com/martini-contrib/sessions"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	db := initDb("tableread.db")

	catalogue, err := LoadCatalogue(db, "public/scripts")
	nilOrPanic(err)

	svc := NewRoomService(catalogue)

	m := martini.Classic()

	store := sessions.NewCookieStore([]byte("table-read-secret"))
	m.Use(sessions.Sessions("tableread", store))
	m.Use(render.Renderer())

	m.Map(db)
	m.MapTo(svc, (*RoomService)(nil))

	m.Get("/scripts", ScriptsHandler)
	m.Post("/rooms", CreateRoomHandler)
	m.Post("/rooms/:code/join", JoinRoomHandler)
	m.Get("/ws/:code", WebsocketHandler)

	m.Run()
}

// initDb rebuilds the scripts table on every boot; the database is a
// materialized copy of the script files, nothing in it outlives a restart.
func initDb(name string) *gorp.DbMap {
	db, err := sql.Open("sqlite3", name)
	nilOrPanic(err)

	dbmap := &gorp.DbMap{Db: db, Dialect: gorp.SqliteDialect{}}
	dbmap.AddTableWithName(ScriptRow{}, "scripts").SetKeys(true, "Id")

	_ = dbmap.DropTables() // first boot has nothing to drop
	err = dbmap.CreateTablesIfNotExists()
	nilOrPanic(err)

	return dbmap
}

func nilOrPanic(err error) {
	if err != nil {
		panic(err)
	}
}
