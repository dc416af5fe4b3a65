// Package library answers one question, which filenames does the local
// photo library already hold, and pushes staged downloads into it. Three
// listing strategies are tried in order of cost: the library database, a
// walk of the originals tree, and finally asking the photo application
// itself through scripting.
package library
