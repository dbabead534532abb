package internal

const ApplicationName = "secref"
