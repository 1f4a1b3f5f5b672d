package main

import (
	"fmt"
	"io/ioutil"
	"log"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "Welcome!\n")
}

func echo(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body, _ := ioutil.ReadAll(r.Body)
	w.Write(body)
}

func main() {
	router := httprouter.New()
	router.GET("/", index)
	router.POST("/echo", echo)
	log.Println(http.ListenAndServe(":8080", router))
}
