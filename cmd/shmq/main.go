/*
 * Copyright 2025 The shmq authors.
 *
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

// Command shmq inspects and manages shared memory queues.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/idkosilov/shmq/queue"
	"github.com/idkosilov/shmq/ringbuf"
)

var (
	createSize int
	getAll     bool
)

var rootCmd = &cobra.Command{
	Use:   "shmq",
	Short: "Inspect and manage shared memory queues",
	Long: `shmq creates, inspects and exercises named FIFO queues stored in
shared memory segments under /dev/shm (or the temporary directory).`,
}

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new shared memory queue",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		q, err := queue.Create(args[0], createSize)
		if err != nil {
			log.Fatalf("Failed to create queue: %v", err)
		}
		defer q.Close()

		fmt.Printf("Created %s (%s), capacity %d bytes\n", q.Name(), q.Path(), q.Capacity())
	},
}

var statCmd = &cobra.Command{
	Use:   "stat <name>",
	Short: "Show queue state",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		q, err := queue.Open(args[0])
		if err != nil {
			log.Fatalf("Failed to open queue: %v", err)
		}
		defer q.Close()

		st := q.State()
		fmt.Printf("Path:           %s\n", q.Path())
		fmt.Printf("Capacity:       %d bytes\n", q.Capacity())
		fmt.Printf("Size:           %d bytes\n", q.Size())
		fmt.Printf("Available:      %d bytes\n", q.AvailableSize())
		fmt.Printf("Empty:          %v\n", q.Empty())
		fmt.Printf("Full:           %v\n", q.Full())
		fmt.Printf("Read index:     %d\n", st.ReadIndex)
		fmt.Printf("Write index:    %d\n", st.WriteIndex)
		fmt.Printf("Ring modulus:   %d\n", st.MaxSize)
	},
}

var putCmd = &cobra.Command{
	Use:   "put <name> [data]",
	Short: "Append a message to a queue (reads stdin when data is omitted)",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		var msg []byte
		if len(args) == 2 {
			msg = []byte(args[1])
		} else {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				log.Fatalf("Failed to read stdin: %v", err)
			}
			msg = data
		}

		q, err := queue.Open(args[0])
		if err != nil {
			log.Fatalf("Failed to open queue: %v", err)
		}
		defer q.Close()

		if err := q.Put(msg); err != nil {
			log.Fatalf("Failed to put message: %v", err)
		}
		fmt.Printf("Put %d bytes (%d occupied of %d)\n", len(msg), q.Size(), q.Capacity())
	},
}

var getCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Remove and print the oldest message",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		q, err := queue.Open(args[0])
		if err != nil {
			log.Fatalf("Failed to open queue: %v", err)
		}
		defer q.Close()

		for {
			msg, err := q.Get()
			if errors.Is(err, ringbuf.ErrEmpty) {
				if !getAll {
					log.Fatal("Queue is empty")
				}
				return
			}
			if err != nil {
				log.Fatalf("Failed to get message: %v", err)
			}
			os.Stdout.Write(msg)
			fmt.Println()

			if !getAll {
				return
			}
		}
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset <name>",
	Short: "Discard all messages in a queue",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		q, err := queue.Open(args[0])
		if err != nil {
			log.Fatalf("Failed to open queue: %v", err)
		}
		defer q.Close()

		q.Reset()
		fmt.Println("Queue reset")
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Remove a queue's segment file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := queue.Remove(args[0]); err != nil {
			log.Fatalf("Failed to remove queue: %v", err)
		}
		fmt.Println("Queue removed")
	},
}

func init() {
	createCmd.Flags().IntVar(&createSize, "size", 65536, "Total segment size in bytes, header included")
	getCmd.Flags().BoolVar(&getAll, "all", false, "Drain the queue, printing every message")

	rootCmd.AddCommand(createCmd, statCmd, putCmd, getCmd, resetCmd, rmCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
